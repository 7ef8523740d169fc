package aiworker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/echo-journal/echo-backend/internal/airuns"
	"github.com/echo-journal/echo-backend/pkg/config"
	"github.com/echo-journal/echo-backend/pkg/db/models"
	"github.com/echo-journal/echo-backend/pkg/enums"
	"github.com/echo-journal/echo-backend/pkg/logger"
	"github.com/echo-journal/echo-backend/pkg/metrics"
)

type blobOpener interface {
	Open(key string) (io.ReadCloser, error)
}

// Worker polls for pending runs, claims them and executes the pipeline.
// Multiple workers are safe: the pending-to-running transition is a
// conditional update and losers skip the run.
type Worker struct {
	repo     *airuns.Repository
	store    blobOpener
	pipeline Pipeline
	log      *logger.Logger
	metrics  *metrics.RunMetrics

	pollInterval time.Duration
	claimBatch   int
	runTimeout   time.Duration
	now          func() time.Time
}

// NewWorker assembles a worker from its dependencies.
func NewWorker(repo *airuns.Repository, store blobOpener, pipeline Pipeline, log *logger.Logger, runMetrics *metrics.RunMetrics, cfg config.WorkerConfig) (*Worker, error) {
	if repo == nil || store == nil || pipeline == nil || log == nil {
		return nil, fmt.Errorf("repository, blob store, pipeline and logger required")
	}
	if cfg.PollInterval <= 0 || cfg.ClaimBatch <= 0 || cfg.RunTimeout <= 0 {
		return nil, fmt.Errorf("poll interval, claim batch and run timeout must be positive")
	}
	return &Worker{
		repo:         repo,
		store:        store,
		pipeline:     pipeline,
		log:          log,
		metrics:      runMetrics,
		pollInterval: cfg.PollInterval,
		claimBatch:   cfg.ClaimBatch,
		runTimeout:   cfg.RunTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start polls until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.log.Info(ctx, "ai worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info(ctx, "ai worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil {
				w.log.Error(ctx, "worker tick failed", err)
			}
		}
	}
}

// Tick claims up to one batch of pending runs and processes them.
func (w *Worker) Tick(ctx context.Context) error {
	pending, err := w.repo.PendingRuns(ctx, w.claimBatch)
	if err != nil {
		return fmt.Errorf("list pending runs: %w", err)
	}

	for i := range pending {
		run := pending[i]
		claimed, err := w.repo.StartRun(ctx, run.ID, w.now())
		if err != nil {
			return fmt.Errorf("claim run %d: %w", run.ID, err)
		}
		if !claimed {
			continue
		}
		w.metrics.IncClaimed()

		runCtx := w.log.WithRunID(w.log.WithEntryID(ctx, run.EntryID.String()), run.ID)
		w.mirrorProjection(runCtx, &run, enums.AIStatusRunning)
		w.processRun(runCtx, &run)
	}
	return nil
}

// processRun executes the pipeline and writes the run's terminal state.
func (w *Worker) processRun(ctx context.Context, run *models.AIRun) {
	started := w.now()
	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	output, err := w.executePipeline(runCtx, run)
	elapsed := w.now().Sub(started)
	w.metrics.ObserveDuration(run.PipelineVersion, elapsed)

	finished := w.now()
	run.FinishedAt = &finished
	run.MetricsJSON = metricsJSON(elapsed)

	if err != nil {
		run.Status = enums.RunStatusError
		message := err.Error()
		run.ErrorMessage = &message
		if storeErr := w.repo.FinishRun(ctx, run); storeErr != nil {
			w.log.Error(ctx, "persist failed run", storeErr)
			return
		}
		w.mirrorProjection(ctx, run, enums.AIStatusError)
		w.metrics.IncFailure(run.PipelineVersion)
		w.log.Error(ctx, "run failed", err)
		return
	}

	run.Status = enums.RunStatusDone
	applyOutput(run, output)
	if err := w.repo.FinishRun(ctx, run); err != nil {
		w.log.Error(ctx, "persist finished run", err)
		return
	}
	if output.DurationSec != nil {
		if err := w.repo.SetEntryDuration(ctx, run.EntryID, *output.DurationSec); err != nil {
			w.log.Warn(ctx, "persist audio duration failed")
		}
	}
	w.mirrorProjection(ctx, run, enums.AIStatusDone)
	w.metrics.IncSuccess(run.PipelineVersion)
	w.log.Info(ctx, "run finished")
}

func (w *Worker) executePipeline(ctx context.Context, run *models.AIRun) (*PipelineOutput, error) {
	entry, err := w.repo.EntryByID(ctx, run.EntryID)
	if err != nil {
		return nil, fmt.Errorf("load entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("entry %s gone", run.EntryID)
	}

	tasks, err := airuns.ParseTasksJSON(run.TasksJSON)
	if err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	rc, err := w.store.Open(entry.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer rc.Close()

	return w.pipeline.Run(ctx, PipelineInput{
		Audio:    rc,
		MimeType: entry.AudioMime,
		FileName: path.Base(entry.AudioPath),
		Tasks:    tasks,
	})
}

// mirrorProjection updates the entry's denormalized state, but only while
// this run is still the entry's latest. A newer run owns the projection.
func (w *Worker) mirrorProjection(ctx context.Context, run *models.AIRun, status enums.AIStatus) {
	isLast, err := w.repo.IsLastRun(ctx, run.EntryID, run.ID)
	if err != nil {
		w.log.Warn(ctx, "check last run failed")
		return
	}
	if !isLast {
		return
	}
	if err := w.repo.SetEntryProjection(ctx, run.EntryID, status, run.ID, w.now()); err != nil {
		w.log.Warn(ctx, "mirror projection failed")
	}
}

func applyOutput(run *models.AIRun, output *PipelineOutput) {
	if output.STTModel != "" {
		run.STTModel = &output.STTModel
	}
	if output.LLMModel != "" {
		run.LLMModel = &output.LLMModel
	}
	if output.TranscriptText != "" {
		run.TranscriptText = &output.TranscriptText
	}
	if output.TranscriptJSON != "" {
		run.TranscriptJSON = &output.TranscriptJSON
	}
	if output.SummaryText != "" {
		run.SummaryText = &output.SummaryText
	}
	if len(output.Keypoints) > 0 {
		if raw, err := json.Marshal(output.Keypoints); err == nil {
			encoded := string(raw)
			run.KeypointsJSON = &encoded
		}
	}
}

func metricsJSON(elapsed time.Duration) *string {
	raw, err := json.Marshal(map[string]any{"elapsed_sec": elapsed.Seconds()})
	if err != nil {
		return nil
	}
	encoded := string(raw)
	return &encoded
}
