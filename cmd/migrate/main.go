package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/mai-recap/internal/infrastructure/database"
	"github.com/johnquangdev/mai-recap/pkg/config"
	"gorm.io/gorm"
)

func main() {
	var steps int

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply or revert the embedded database migrations",
		SilenceUsage: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(db *gorm.DB) error {
					n, err := database.Migrate(db)
					if err != nil {
						return err
					}
					log.Printf("✅ Successfully applied %d migration(s)!\n", n)
					return nil
				})
			},
		},
		func() *cobra.Command {
			down := &cobra.Command{
				Use:   "down",
				Short: "Revert the most recent migrations",
				RunE: func(cmd *cobra.Command, args []string) error {
					return withDB(func(db *gorm.DB) error {
						n, err := database.Rollback(db, steps)
						if err != nil {
							return err
						}
						log.Printf("✅ Reverted %d migration(s)\n", n)
						return nil
					})
				},
			}
			down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")
			return down
		}(),
		&cobra.Command{
			Use:   "status",
			Short: "Show which migrations have been applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(db *gorm.DB) error {
					states, err := database.MigrationStatus(db)
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					for _, s := range states {
						if s.AppliedAt == nil {
							fmt.Fprintf(out, "%-40s pending\n", s.ID)
							continue
						}
						fmt.Fprintf(out, "%-40s %s\n", s.ID, s.AppliedAt.Format("2006-01-02 15:04:05"))
					}
					return nil
				})
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func withDB(fn func(db *gorm.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	return fn(db)
}
