package airuns

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/echo-journal/echo-backend/internal/fingerprint"
	"github.com/echo-journal/echo-backend/pkg/db/models"
	"github.com/echo-journal/echo-backend/pkg/enums"
	pkgerrors "github.com/echo-journal/echo-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type blobStore interface {
	Open(key string) (io.ReadCloser, error)
	Exists(key string) (bool, error)
}

// Service orchestrates AI processing runs for entries.
type Service interface {
	Process(ctx context.Context, entryID uuid.UUID, input ProcessInput) (*ProcessResult, error)
	EntryAI(ctx context.Context, entryID uuid.UUID) (*EntryAIOut, error)
	GetRun(ctx context.Context, runID int64) (*RunOut, error)
}

type service struct {
	tx             txRunner
	repo           *Repository
	store          blobStore
	defaultVersion string
	now            func() time.Time
}

// NewService constructs the run orchestrator.
func NewService(tx txRunner, repo *Repository, store blobStore, defaultVersion string) (Service, error) {
	if tx == nil || repo == nil || store == nil {
		return nil, fmt.Errorf("tx runner, repository and blob store required")
	}
	if defaultVersion == "" {
		return nil, fmt.Errorf("default pipeline version required")
	}
	return &service{
		tx:             tx,
		repo:           repo,
		store:          store,
		defaultVersion: defaultVersion,
		now:            func() time.Time { return time.Now().UTC() },
	}, nil
}

// Process decides, inside one transaction, whether an entry's latest done run
// already covers the requested work. A run is reusable only when its audio
// hash, canonical task list and pipeline version all match the request; any
// mismatch, or force=true, queues a new pending run. A matching run that is
// still pending or running is returned as-is instead of queueing a sibling.
func (s *service) Process(ctx context.Context, entryID uuid.UUID, input ProcessInput) (*ProcessResult, error) {
	_, tasksJSON, err := canonicalTasks(input.Tasks)
	if err != nil {
		return nil, err
	}
	version := input.PipelineVersion
	if version == "" {
		version = s.defaultVersion
	}

	var result *ProcessResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.With(tx)
		now := s.now()

		entry, err := repo.EntryByID(ctx, entryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entry")
		}
		if entry == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
		}

		// the blob must be present even when a cached hash lets us skip
		// reading it; a deleted blob can neither reuse nor queue work
		exists, err := s.store.Exists(entry.AudioPath)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stat audio blob")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "audio file not found")
		}

		sha, err := s.resolveFingerprint(ctx, repo, entry, input.Force)
		if err != nil {
			return err
		}

		last, err := repo.LastRunForEntry(ctx, entryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load last run")
		}

		if !input.Force && runMatches(last, sha, tasksJSON, version) {
			switch last.Status {
			case enums.RunStatusDone:
				if err := repo.SetEntryProjection(ctx, entryID, enums.AIStatusDone, last.ID, now); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update entry projection")
				}
				result = &ProcessResult{Reused: true, RunID: last.ID, EntryID: entryID, Status: last.Status}
				return nil
			case enums.RunStatusPending, enums.RunStatusRunning:
				result = &ProcessResult{Reused: false, RunID: last.ID, EntryID: entryID, Status: last.Status}
				return nil
			}
		}

		run := &models.AIRun{
			EntryID:         entryID,
			Status:          enums.RunStatusPending,
			RequestedAt:     now,
			TasksJSON:       tasksJSON,
			PipelineVersion: version,
			AudioSHA256:     &sha,
		}
		if err := repo.CreateRun(ctx, run); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create run")
		}
		if err := repo.SetEntryProjection(ctx, entryID, enums.AIStatusPending, run.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update entry projection")
		}
		result = &ProcessResult{Reused: false, RunID: run.ID, EntryID: entryID, Status: run.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveFingerprint returns the entry's audio hash, recomputing from the
// blob when forced or when no cached hash exists. Recomputed hashes are
// persisted on the entry within the surrounding transaction.
func (s *service) resolveFingerprint(ctx context.Context, repo *Repository, entry *models.Entry, force bool) (string, error) {
	if !force && entry.AudioSHA256 != nil && *entry.AudioSHA256 != "" {
		return *entry.AudioSHA256, nil
	}

	rc, err := s.store.Open(entry.AudioPath)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open audio blob")
	}
	defer rc.Close()

	sha, err := fingerprint.Compute(rc)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash audio blob")
	}
	if err := repo.SetEntryFingerprint(ctx, entry.ID, sha); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist audio hash")
	}
	entry.AudioSHA256 = &sha
	return sha, nil
}

// EntryAI returns the entry's denormalized AI state plus its latest run.
func (s *service) EntryAI(ctx context.Context, entryID uuid.UUID) (*EntryAIOut, error) {
	entry, err := s.repo.EntryByID(ctx, entryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entry")
	}
	if entry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
	}

	out := &EntryAIOut{
		EntryID:     entry.ID,
		AIStatus:    entry.AIStatus,
		AILastRunID: entry.AILastRunID,
		AIUpdatedAt: entry.AIUpdatedAt,
	}
	if entry.AILastRunID != nil {
		run, err := s.repo.FindRunByID(ctx, *entry.AILastRunID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load last run")
		}
		if run != nil {
			out.LastRun = ToRunOut(run)
		}
	}
	return out, nil
}

// GetRun returns a run by id.
func (s *service) GetRun(ctx context.Context, runID int64) (*RunOut, error) {
	run, err := s.repo.FindRunByID(ctx, runID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load run")
	}
	if run == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "run not found")
	}
	return ToRunOut(run), nil
}

// runMatches reports whether last covers the requested fingerprint, task list
// and pipeline version. Error runs never match; they always retry fresh.
func runMatches(last *models.AIRun, sha, tasksJSON, version string) bool {
	if last == nil || last.Status == enums.RunStatusError {
		return false
	}
	if last.AudioSHA256 == nil || *last.AudioSHA256 != sha {
		return false
	}
	return last.TasksJSON == tasksJSON && last.PipelineVersion == version
}
