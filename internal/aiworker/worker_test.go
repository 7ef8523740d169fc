package aiworker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/echo-journal/echo-backend/internal/airuns"
	"github.com/echo-journal/echo-backend/pkg/config"
	"github.com/echo-journal/echo-backend/pkg/db/models"
	"github.com/echo-journal/echo-backend/pkg/enums"
	"github.com/echo-journal/echo-backend/pkg/logger"
	"github.com/echo-journal/echo-backend/pkg/metrics"
)

const entriesDDL = `
CREATE TABLE entries (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    question_id INTEGER NOT NULL,
    audio_path TEXT NOT NULL,
    audio_mime TEXT NOT NULL,
    audio_size INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ai_status TEXT NOT NULL DEFAULT 'none',
    ai_last_run_id INTEGER,
    ai_updated_at DATETIME,
    audio_sha256 TEXT,
    audio_duration_sec REAL
);`

const runsDDL = `
CREATE TABLE ai_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_id TEXT NOT NULL,
    status TEXT NOT NULL,
    requested_at DATETIME NOT NULL,
    started_at DATETIME,
    finished_at DATETIME,
    tasks_json TEXT NOT NULL,
    pipeline_version TEXT NOT NULL,
    audio_sha256 TEXT,
    stt_model TEXT,
    llm_model TEXT,
    transcript_text TEXT,
    transcript_json TEXT,
    summary_text TEXT,
    keypoints_json TEXT,
    error_message TEXT,
    metrics_json TEXT
);`

type stubPipeline struct {
	output *PipelineOutput
	err    error
	calls  int
	inputs []PipelineInput
}

func (s *stubPipeline) Run(ctx context.Context, input PipelineInput) (*PipelineOutput, error) {
	s.calls++
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

type stubOpener struct {
	blobs map[string][]byte
}

func (s *stubOpener) Open(key string) (io.ReadCloser, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("no such blob")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(
		sqlite.Open(filepath.Join(t.TempDir(), "worker_test.db")),
		&gorm.Config{SkipDefaultTransaction: true},
	)
	require.NoError(t, err)
	require.NoError(t, conn.Exec(entriesDDL).Error)
	require.NoError(t, conn.Exec(runsDDL).Error)
	return conn
}

func newTestWorker(t *testing.T, conn *gorm.DB, store *stubOpener, pipeline Pipeline) *Worker {
	t.Helper()
	log := logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
	w, err := NewWorker(airuns.NewRepository(conn), store, pipeline, log, metrics.NewRunMetrics(nil), config.WorkerConfig{
		PollInterval: time.Second,
		ClaimBatch:   5,
		RunTimeout:   time.Minute,
	})
	require.NoError(t, err)
	return w
}

func seedEntryWithRun(t *testing.T, conn *gorm.DB, store *stubOpener, tasksJSON string) (*models.Entry, *models.AIRun) {
	t.Helper()
	entry := &models.Entry{
		ID:         uuid.New(),
		UserID:     "u1",
		QuestionID: 1,
		AudioMime:  "audio/mpeg",
		AudioSize:  5,
		AIStatus:   enums.AIStatusPending,
	}
	entry.AudioPath = "audio/" + entry.ID.String() + ".mp3"
	require.NoError(t, conn.Create(entry).Error)
	store.blobs[entry.AudioPath] = []byte("audio")

	run := &models.AIRun{
		EntryID:         entry.ID,
		Status:          enums.RunStatusPending,
		RequestedAt:     time.Now().UTC(),
		TasksJSON:       tasksJSON,
		PipelineVersion: "v3.a",
	}
	require.NoError(t, conn.Create(run).Error)
	require.NoError(t, conn.Model(&models.Entry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{"ai_last_run_id": run.ID, "ai_updated_at": time.Now().UTC()}).Error)
	return entry, run
}

func reloadRun(t *testing.T, conn *gorm.DB, id int64) *models.AIRun {
	t.Helper()
	var run models.AIRun
	require.NoError(t, conn.First(&run, "id = ?", id).Error)
	return &run
}

func reloadEntry(t *testing.T, conn *gorm.DB, id uuid.UUID) *models.Entry {
	t.Helper()
	var e models.Entry
	require.NoError(t, conn.First(&e, "id = ?", id).Error)
	return &e
}

func TestTickFinishesRun(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	store := &stubOpener{blobs: map[string][]byte{}}
	duration := 12.5
	pipeline := &stubPipeline{output: &PipelineOutput{
		STTModel:       "whisper-1",
		LLMModel:       "gpt-4o-mini",
		TranscriptText: "bonjour",
		SummaryText:    "un résumé",
		Keypoints:      []string{"a", "b"},
		DurationSec:    &duration,
	}}
	w := newTestWorker(t, conn, store, pipeline)
	entry, run := seedEntryWithRun(t, conn, store, `["transcribe","summarize"]`)

	require.NoError(t, w.Tick(context.Background()))

	assert.Equal(t, 1, pipeline.calls)
	finished := reloadRun(t, conn, run.ID)
	assert.Equal(t, enums.RunStatusDone, finished.Status)
	require.NotNil(t, finished.TranscriptText)
	assert.Equal(t, "bonjour", *finished.TranscriptText)
	require.NotNil(t, finished.SummaryText)
	assert.Equal(t, "un résumé", *finished.SummaryText)
	require.NotNil(t, finished.KeypointsJSON)
	assert.JSONEq(t, `["a","b"]`, *finished.KeypointsJSON)
	require.NotNil(t, finished.FinishedAt)
	require.NotNil(t, finished.MetricsJSON)

	reloaded := reloadEntry(t, conn, entry.ID)
	assert.Equal(t, enums.AIStatusDone, reloaded.AIStatus)
	require.NotNil(t, reloaded.AudioDurationSec)
	assert.Equal(t, duration, *reloaded.AudioDurationSec)
}

func TestTickRecordsPipelineFailure(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	store := &stubOpener{blobs: map[string][]byte{}}
	pipeline := &stubPipeline{err: errors.New("whisper unavailable")}
	w := newTestWorker(t, conn, store, pipeline)
	entry, run := seedEntryWithRun(t, conn, store, `["transcribe"]`)

	require.NoError(t, w.Tick(context.Background()))

	failed := reloadRun(t, conn, run.ID)
	assert.Equal(t, enums.RunStatusError, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Contains(t, *failed.ErrorMessage, "whisper unavailable")

	reloaded := reloadEntry(t, conn, entry.ID)
	assert.Equal(t, enums.AIStatusError, reloaded.AIStatus)
}

func TestTickMissingBlobFailsRun(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	store := &stubOpener{blobs: map[string][]byte{}}
	pipeline := &stubPipeline{output: &PipelineOutput{TranscriptText: "x"}}
	w := newTestWorker(t, conn, store, pipeline)
	_, run := seedEntryWithRun(t, conn, store, `["transcribe"]`)
	delete(store.blobs, reloadEntry(t, conn, run.EntryID).AudioPath)

	require.NoError(t, w.Tick(context.Background()))

	failed := reloadRun(t, conn, run.ID)
	assert.Equal(t, enums.RunStatusError, failed.Status)
	assert.Equal(t, 0, pipeline.calls, "pipeline must not run without audio")
}

func TestStartRunClaimIsExclusive(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	store := &stubOpener{blobs: map[string][]byte{}}
	_, run := seedEntryWithRun(t, conn, store, `["transcribe"]`)
	repo := airuns.NewRepository(conn)

	first, err := repo.StartRun(context.Background(), run.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.StartRun(context.Background(), run.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, second, "a claimed run cannot be claimed twice")
}

func TestProjectionNotMirroredForStaleRun(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	store := &stubOpener{blobs: map[string][]byte{}}
	pipeline := &stubPipeline{output: &PipelineOutput{TranscriptText: "late"}}
	w := newTestWorker(t, conn, store, pipeline)
	entry, run := seedEntryWithRun(t, conn, store, `["transcribe"]`)

	// a newer run supersedes the one being processed
	newer := &models.AIRun{
		EntryID:         entry.ID,
		Status:          enums.RunStatusPending,
		RequestedAt:     time.Now().UTC().Add(time.Second),
		TasksJSON:       `["transcribe"]`,
		PipelineVersion: "v3.a",
	}
	require.NoError(t, conn.Create(newer).Error)
	require.NoError(t, conn.Model(&models.AIRun{}).
		Where("id = ?", newer.ID).
		Update("status", enums.RunStatusRunning).Error)
	require.NoError(t, conn.Model(&models.Entry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{"ai_status": enums.AIStatusRunning, "ai_last_run_id": newer.ID}).Error)

	require.NoError(t, w.Tick(context.Background()))

	finished := reloadRun(t, conn, run.ID)
	assert.Equal(t, enums.RunStatusDone, finished.Status)

	reloaded := reloadEntry(t, conn, entry.ID)
	assert.Equal(t, enums.AIStatusRunning, reloaded.AIStatus, "stale run must not steal the projection")
	require.NotNil(t, reloaded.AILastRunID)
	assert.Equal(t, newer.ID, *reloaded.AILastRunID)
}
