package entries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/google/uuid"

	"github.com/echo-journal/echo-backend/pkg/db"
	"github.com/echo-journal/echo-backend/pkg/db/models"
	pkgerrors "github.com/echo-journal/echo-backend/pkg/errors"
)

type entryRepository interface {
	Create(ctx context.Context, entry *models.Entry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	ListByUser(ctx context.Context, userID string) ([]models.Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type questionFinder interface {
	FindByID(ctx context.Context, id int) (*models.Question, error)
}

type blobStore interface {
	Save(key string, r io.Reader) (int64, error)
	Open(key string) (io.ReadCloser, error)
	Remove(key string) error
}

// CreateInput carries a new entry upload.
type CreateInput struct {
	UserID     string
	QuestionID int
	MimeType   string
	Audio      io.Reader
}

// Service manages journal entries and their audio blobs.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Entry, error)
	List(ctx context.Context, userID string) ([]models.Entry, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	OpenAudio(ctx context.Context, id uuid.UUID) (io.ReadCloser, *models.Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      entryRepository
	questions questionFinder
	store     blobStore
	maxBytes  int64
}

// NewService constructs an entry service.
func NewService(repo entryRepository, questions questionFinder, store blobStore, maxBytes int64) (Service, error) {
	if repo == nil || questions == nil || store == nil {
		return nil, fmt.Errorf("entry repository, question finder and blob store required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{repo: repo, questions: questions, store: store, maxBytes: maxBytes}, nil
}

// Create validates the upload, writes the blob and inserts the entry row.
// The blob is removed again when the row insert fails.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Entry, error) {
	mimeType := normalizeMime(input.MimeType)
	ext, ok := extensionFor(mimeType)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported audio type").
			WithDetails(map[string]any{"mime": input.MimeType})
	}

	q, err := s.questions.FindByID(ctx, input.QuestionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load question")
	}
	if q == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
	}

	id := uuid.New()
	key := audioKey(id, ext)

	// one extra byte so an oversized upload is detectable
	written, err := s.store.Save(key, io.LimitReader(input.Audio, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store audio")
	}
	if written == 0 {
		_ = s.store.Remove(key)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty audio file")
	}
	if written > s.maxBytes {
		_ = s.store.Remove(key)
		return nil, pkgerrors.New(pkgerrors.CodePayloadTooLarge, "audio file too large").
			WithDetails(map[string]any{"max_bytes": s.maxBytes})
	}

	entry := &models.Entry{
		ID:         id,
		UserID:     input.UserID,
		QuestionID: input.QuestionID,
		AudioPath:  key,
		AudioMime:  mimeType,
		AudioSize:  written,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		_ = s.store.Remove(key)
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "entry already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert entry")
	}
	return entry, nil
}

// List returns a user's entries, newest first.
func (s *service) List(ctx context.Context, userID string) ([]models.Entry, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list entries")
	}
	return rows, nil
}

// Get returns the entry with the given id.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entry")
	}
	if entry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
	}
	return entry, nil
}

// OpenAudio opens the entry's stored audio blob for streaming.
func (s *service) OpenAudio(ctx context.Context, id uuid.UUID) (io.ReadCloser, *models.Entry, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(entry.AudioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "audio file not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open audio")
	}
	return rc, entry, nil
}

// Delete removes the entry row, its runs and, best effort, the audio blob.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete entry")
	}
	_ = s.store.Remove(entry.AudioPath)
	return nil
}

func audioKey(id uuid.UUID, ext string) string {
	return "audio/" + id.String() + ext
}
