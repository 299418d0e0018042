package meeting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/mai-recap/errors"
	"github.com/johnquangdev/mai-recap/internal/domain/entities"
	"github.com/johnquangdev/mai-recap/pkg/jobcontext"
)

const staleSweepInterval = 5 * time.Minute

// StartWorkerPool starts workers that transcribe queued audio
func (s *service) StartWorkerPool(ctx context.Context, workerCount int) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}
	if s.transcriber == nil {
		return fmt.Errorf("no transcriber configured")
	}
	if workerCount <= 0 {
		workerCount = 1
	}

	s.isWorkerPoolRunning = true
	s.workerStopChan = make(chan struct{})

	s.logger.Info("🚀 Starting transcription worker pool",
		zap.Int("worker_count", workerCount),
		zap.String("provider", s.transcriber.Name()),
	)

	for i := 0; i < workerCount; i++ {
		s.workerWg.Add(1)
		go s.transcriptionWorker(ctx, i)
	}

	// Requeue jobs abandoned by a crashed process
	s.workerWg.Add(1)
	go s.cleanupStaleJobs(ctx)

	return nil
}

// StopWorkerPool gracefully stops all worker goroutines
func (s *service) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	s.logger.Info("🛑 Stopping transcription worker pool...")

	close(s.workerStopChan)
	s.workerWg.Wait()
	s.isWorkerPoolRunning = false

	s.logger.Info("✅ Transcription worker pool stopped")
	return nil
}

// transcriptionWorker polls for pending jobs and processes the first one it can claim
func (s *service) transcriptionWorker(parentCtx context.Context, workerID int) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	s.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-s.workerStopChan:
			s.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
			return
		case <-parentCtx.Done():
			return
		case <-ticker.C:
			s.pollOnce(parentCtx, workerID)
		}
	}
}

// pollOnce claims and runs at most one queued job
func (s *service) pollOnce(ctx context.Context, workerID int) {
	jobs, err := s.jobs.ListForProcessing(ctx, 5)
	if err != nil {
		s.logger.Error("❌ Failed to poll jobs", zap.Int("worker_id", workerID), zap.Error(err))
		return
	}

	for i := range jobs {
		job := jobs[i]

		// Only one worker wins when several see the same job
		claimed, err := s.jobs.Claim(ctx, job.ID)
		if err != nil {
			s.logger.Error("❌ Failed to claim job", zap.String("job_id", job.ID.String()), zap.Error(err))
			continue
		}
		if !claimed {
			s.logger.Info("⏭️ Job already claimed by another worker", zap.String("job_id", job.ID.String()))
			continue
		}

		s.logger.Info("👷 Worker claimed job",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("meeting_id", job.MeetingID.String()),
		)
		s.runJob(ctx, &job, workerID)
		return
	}
}

// runJob transcribes one job and records the outcome on the job and the meeting
func (s *service) runJob(parentCtx context.Context, job *entities.Job, workerID int) {
	started := s.now()

	m, err := s.meetings.GetByID(parentCtx, job.MeetingID)
	if err != nil || m == nil {
		msg := "meeting no longer exists"
		if err != nil {
			msg = err.Error()
		}
		_ = s.jobs.MarkFailed(parentCtx, job.ID, msg)
		s.metrics.TranscriptionJob(string(entities.JobStatusFailed))
		return
	}

	if _, err := s.meetings.UpdateStatusIf(parentCtx, m.ID, entities.MeetingStatusTranscribing,
		entities.MeetingStatusAudioUploaded, entities.MeetingStatusFailed); err != nil {
		s.logger.Warn("⚠️ Failed to mark meeting transcribing", zap.String("meeting_id", m.ID.String()), zap.Error(err))
	}

	contentType := ""
	if m.AudioContentType != nil {
		contentType = *m.AudioContentType
	}

	jobCtx, cancel := jobcontext.JobBegin(parentCtx, job.ID, string(job.JobType), workerID,
		jobcontext.WithTimeout(s.opts.JobTimeout),
		jobcontext.WithMaxRetries(2),
		jobcontext.WithBaseDelay(s.opts.RetryDelay),
	)
	var transcript string
	err = jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
		if md := jobcontext.GetJobMetadata(ctx); md.RetryAttempt > 0 {
			s.logger.Info("🔁 Retrying transcription",
				zap.String("job_id", md.JobID.String()),
				zap.Int("worker_id", md.WorkerID),
				zap.Int("attempt", md.RetryAttempt+1),
				zap.Int("max_attempts", md.MaxRetries),
			)
		}
		text, err := s.transcribe(ctx, job.AudioObject, contentType)
		if err != nil {
			return err
		}
		transcript = text
		return nil
	})
	cancel()

	if err != nil {
		s.failJob(parentCtx, job, err)
		return
	}

	// Reload: the user may have edited the meeting while we worked
	m, err = s.meetings.GetByID(parentCtx, job.MeetingID)
	if err != nil || m == nil {
		_ = s.jobs.MarkFailed(parentCtx, job.ID, "meeting no longer exists")
		s.metrics.TranscriptionJob(string(entities.JobStatusFailed))
		return
	}
	if !ownsMeeting(m, job) {
		s.supersedeJob(parentCtx, job, m, len(transcript), started)
		return
	}

	speakers := s.normalizer.Detect(transcript)
	if err := m.SetTranscript(transcript, speakers); err != nil {
		s.failJob(parentCtx, job, err)
		return
	}
	if err := s.meetings.Update(parentCtx, m); err != nil {
		s.failJob(parentCtx, job, err)
		return
	}

	meta := entities.JobMetadata{
		Provider:         s.transcriber.Name(),
		TranscriptChars:  len(transcript),
		SpeakerCount:     len(speakers),
		ProcessingTimeMs: s.now().Sub(started).Milliseconds(),
	}
	if err := s.jobs.MarkCompleted(parentCtx, job.ID, meta); err != nil {
		s.logger.Error("❌ Failed to mark job completed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
	s.metrics.TranscriptionJob(string(entities.JobStatusCompleted))

	s.logger.Info("✅ Transcription completed",
		zap.String("job_id", job.ID.String()),
		zap.String("meeting_id", m.ID.String()),
		zap.Int("speaker_count", len(speakers)),
		zap.Int64("processing_time_ms", meta.ProcessingTimeMs),
	)
}

// ownsMeeting reports whether job is still the transcription the meeting waits for.
// A manual transcript edit or a newer upload takes the meeting out of transcribing.
func ownsMeeting(m *entities.Meeting, job *entities.Job) bool {
	return m.Status == entities.MeetingStatusTranscribing &&
		m.AudioObject != nil && *m.AudioObject == job.AudioObject
}

// supersedeJob completes job without touching the meeting
func (s *service) supersedeJob(ctx context.Context, job *entities.Job, m *entities.Meeting, chars int, started time.Time) {
	meta := entities.JobMetadata{
		Provider:         s.transcriber.Name(),
		TranscriptChars:  chars,
		ProcessingTimeMs: s.now().Sub(started).Milliseconds(),
		Superseded:       true,
	}
	if err := s.jobs.MarkCompleted(ctx, job.ID, meta); err != nil {
		s.logger.Error("❌ Failed to mark job completed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
	s.metrics.TranscriptionJob("superseded")

	s.logger.Info("⏭️ Transcript discarded, meeting changed during transcription",
		zap.String("job_id", job.ID.String()),
		zap.String("meeting_id", m.ID.String()),
		zap.String("meeting_status", string(m.Status)),
	)
}

func (s *service) transcribe(ctx context.Context, object, contentType string) (string, error) {
	rc, err := s.storage.DownloadFile(ctx, object)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	started := s.now()
	text, err := s.transcriber.Transcribe(ctx, rc, contentType)
	s.metrics.ObserveAI(s.transcriber.Name(), "transcribe", started, err)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s returned an empty transcript", s.transcriber.Name())
	}
	return text, nil
}

// failJob requeues a retryable job or fails it together with its meeting
func (s *service) failJob(ctx context.Context, job *entities.Job, cause error) {
	msg := cause.Error()

	if jobcontext.IsRetryableError(cause) && job.RetryCount+1 < job.MaxRetries {
		if err := s.jobs.MarkRetrying(ctx, job.ID, msg); err != nil {
			s.logger.Error("❌ Failed to requeue job", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		_, _ = s.meetings.UpdateStatusIf(ctx, job.MeetingID, entities.MeetingStatusAudioUploaded, entities.MeetingStatusTranscribing)
		s.metrics.TranscriptionJob(string(entities.JobStatusRetrying))
		s.logger.Warn("⚠️ Transcription failed, will retry",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount+1),
			zap.Error(cause),
		)
		return
	}

	if err := s.jobs.MarkFailed(ctx, job.ID, msg); err != nil {
		s.logger.Error("❌ Failed to mark job failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
	s.metrics.TranscriptionJob(string(entities.JobStatusFailed))

	if m, err := s.meetings.GetByID(ctx, job.MeetingID); err == nil && m != nil {
		if m.MarkFailed(errors.ErrAITranscriptionFailed(cause).Error()) == nil {
			if err := s.meetings.Update(ctx, m); err != nil {
				s.logger.Error("❌ Failed to mark meeting failed", zap.String("meeting_id", m.ID.String()), zap.Error(err))
			}
		}
	}

	s.logger.Error("❌ Transcription failed",
		zap.String("job_id", job.ID.String()),
		zap.String("meeting_id", job.MeetingID.String()),
		zap.Error(cause),
	)
}

// cleanupStaleJobs returns jobs stuck in processing to the queue
func (s *service) cleanupStaleJobs(parentCtx context.Context) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(staleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.workerStopChan:
			return
		case <-parentCtx.Done():
			return
		case <-ticker.C:
			cutoff := s.now().Add(-2 * s.opts.JobTimeout)
			n, err := s.jobs.ResetStale(parentCtx, cutoff)
			if err != nil {
				s.logger.Error("❌ Failed to reset stale jobs", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Warn("🧹 Requeued stale jobs", zap.Int64("count", n))
			}
		}
	}
}
