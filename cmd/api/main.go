package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/johnquangdev/mai-recap/internal/adapter/handler"
	"github.com/johnquangdev/mai-recap/internal/adapter/repository"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/cache"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/database"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/metrics"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/storage"
	"github.com/johnquangdev/mai-recap/internal/usecase/auth"
	"github.com/johnquangdev/mai-recap/internal/usecase/meeting"
	"github.com/johnquangdev/mai-recap/internal/usecase/minutes"
	"github.com/johnquangdev/mai-recap/internal/usecase/speaker"
	pkgai "github.com/johnquangdev/mai-recap/pkg/ai"
	"github.com/johnquangdev/mai-recap/pkg/config"
	"github.com/johnquangdev/mai-recap/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/mai-recap/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxUploadMB+1)))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, "X-Export-URL"},
		AllowCredentials: true,
	}))

	log.Println("🔧 Initializing dependencies...")

	m := metrics.New()
	e.Use(m.EchoMiddleware())

	// Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or run cmd/migrate.")
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; run cmd/migrate to manage the schema")
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := m.RegisterDB(sqlDB); err != nil {
			logger.Warn("⚠️ Failed to register DB metrics", zap.Error(err))
		}
	}

	// Cache
	log.Printf("📦 Connecting to cache (%s)...", cfg.Redis.Driver)
	store, err := cache.New(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to cache: %v", err)
	}
	defer store.Close()

	// Object storage
	log.Println("🪣 Connecting to object storage...")
	objects, err := storage.NewMinIOClient(ctx, &cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Repositories
	log.Println("⚙️  Initializing repositories...")
	meetingRepo := repository.NewMeetingRepository(db)
	jobRepo := repository.NewJobRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// AI clients
	log.Println("🤖 Initializing AI components...")
	llm, transcriber := newAIClients(cfg)

	// Minutes renderer and speaker normalizer
	defaults, err := minutes.LoadDefaults(cfg.Minutes.DefaultsFile)
	if err != nil {
		log.Fatalf("Failed to load minutes defaults: %v", err)
	}
	renderer := minutes.NewRenderer(defaults)
	normalizer := speaker.New(speaker.WithMaxLabelLen(cfg.Minutes.SpeakerLabelMaxLen))

	// Services
	log.Println("🔑 Initializing session tokens...")
	jwtManager := jwt.NewManager(cfg.Auth.AccessSecret, cfg.Auth.AccessExpiry)
	authService := auth.NewService(cfg.Auth.Password, jwtManager, store, logger)

	meetingService := meeting.NewService(meeting.Deps{
		Meetings:    meetingRepo,
		Jobs:        jobRepo,
		Chats:       chatRepo,
		Storage:     objects,
		Cache:       store,
		LLM:         llm,
		Transcriber: transcriber,
		Renderer:    renderer,
		Normalizer:  normalizer,
		Metrics:     m,
		Logger:      logger,
	}, meeting.Options{
		CacheTTL:     cfg.Redis.TTL,
		URLExpiry:    cfg.Storage.URLExpiry,
		PollInterval: cfg.Worker.PollInterval,
		JobTimeout:   cfg.AI.RequestTimeout,
	})

	if err := meetingService.StartWorkerPool(ctx, cfg.Worker.Count); err != nil {
		log.Fatalf("Failed to start transcription workers: %v", err)
	}

	// Routes
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, handler.RouterDeps{
		Auth:     handler.NewAuth(authService, cfg.IsProduction(), logger),
		Meetings: handler.NewMeeting(meetingService, int64(cfg.Server.MaxUploadMB)<<20, logger),
		Tools:    handler.NewTools(renderer, normalizer, m, logger),
		Sessions: authService,
		Metrics:  m,
		Checks: map[string]handler.HealthCheck{
			"database": func(context.Context) error { return database.Ping(db) },
			"storage":  objects.Ping,
		},
	})
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}
	if err := meetingService.StopWorkerPool(); err != nil {
		logger.Warn("⚠️ Worker pool stop", zap.Error(err))
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newAIClients picks the summarisation model and the transcriber from config
func newAIClients(cfg *config.Config) (pkgai.LLM, pkgai.Transcriber) {
	policy := pkgai.DefaultRetryPolicy()
	policy.MaxElapsed = cfg.AI.MaxElapsed

	var gemini *pkgai.GeminiClient
	if len(cfg.Gemini.APIKeys) > 0 {
		gemini = pkgai.NewGeminiClient(&cfg.Gemini, policy, cfg.AI.RequestTimeout)
	}

	var llm pkgai.LLM
	switch cfg.AI.Provider {
	case "groq":
		llm = pkgai.NewGroqClient(&cfg.Groq, policy, cfg.AI.RequestTimeout)
	default:
		llm = gemini
	}

	var transcriber pkgai.Transcriber
	switch cfg.AI.Transcriber {
	case "assemblyai":
		transcriber = pkgai.NewAssemblyAIClient(&cfg.Assembly, policy)
	default:
		transcriber = gemini
	}

	log.Printf("✅ LLM: %s, transcriber: %s", llm.Name(), transcriber.Name())
	return llm, transcriber
}
