package questions

import (
	"context"
	"fmt"
	"time"

	"github.com/echo-journal/echo-backend/pkg/db/models"
	pkgerrors "github.com/echo-journal/echo-backend/pkg/errors"
)

type questionRepository interface {
	ListActive(ctx context.Context) ([]models.Question, error)
	FindByID(ctx context.Context, id int) (*models.Question, error)
}

// Service selects the rotating question of the day.
type Service interface {
	Today(ctx context.Context, now time.Time) (*models.Question, error)
	Get(ctx context.Context, id int) (*models.Question, error)
}

type service struct {
	repo questionRepository
}

// NewService constructs a question service backed by the provided repository.
func NewService(repo questionRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("question repository required")
	}
	return &service{repo: repo}, nil
}

// Today returns the active question for the given day. Every client sees the
// same question on the same calendar day; the pool rotates daily.
func (s *service) Today(ctx context.Context, now time.Time) (*models.Question, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list questions")
	}
	if len(active) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active question")
	}
	selected := active[dayOrdinal(now)%len(active)]
	return &selected, nil
}

// Get returns the question with the given id.
func (s *service) Get(ctx context.Context, id int) (*models.Question, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load question")
	}
	if q == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
	}
	return q, nil
}

// proleptic-Gregorian day number, stable across restarts and hosts
func dayOrdinal(now time.Time) int {
	const epochOrdinal = 719163 // day number of 1970-01-01
	return int(now.UTC().Unix()/86400) + epochOrdinal
}
