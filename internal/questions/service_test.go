package questions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/echo-journal/echo-backend/pkg/db/models"
	pkgerrors "github.com/echo-journal/echo-backend/pkg/errors"
)

type stubQuestionRepo struct {
	active  []models.Question
	byID    map[int]*models.Question
	listErr error
}

func (s *stubQuestionRepo) ListActive(ctx context.Context) ([]models.Question, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.active, nil
}

func (s *stubQuestionRepo) FindByID(ctx context.Context, id int) (*models.Question, error) {
	return s.byID[id], nil
}

func pool(n int) []models.Question {
	out := make([]models.Question, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Question{ID: i, Text: "q", Category: "c", IsActive: true})
	}
	return out
}

func TestTodayIsStableWithinADay(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubQuestionRepo{active: pool(10)})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	morning := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 31, 22, 30, 0, 0, time.UTC)

	first, err := svc.Today(context.Background(), morning)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	second, err := svc.Today(context.Background(), evening)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same day picked %d then %d", first.ID, second.ID)
	}
}

func TestTodayRotatesAcrossDays(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubQuestionRepo{active: pool(10)})

	today := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	tomorrow := today.Add(24 * time.Hour)

	first, err := svc.Today(context.Background(), today)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	second, err := svc.Today(context.Background(), tomorrow)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if second.ID != first.ID%10+1 && second.ID != first.ID+1 {
		t.Fatalf("expected next question after %d, got %d", first.ID, second.ID)
	}
}

func TestTodayWithoutActiveQuestions(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubQuestionRepo{})
	_, err := svc.Today(context.Background(), time.Now())
	if !pkgerrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTodayWrapsRepoErrors(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubQuestionRepo{listErr: errors.New("db down")})
	_, err := svc.Today(context.Background(), time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	q := &models.Question{ID: 3, Text: "t", Category: "c", IsActive: true}
	svc, _ := NewService(&stubQuestionRepo{byID: map[int]*models.Question{3: q}})

	got, err := svc.Get(context.Background(), 3)
	if err != nil || got.ID != 3 {
		t.Fatalf("Get = %v, %v", got, err)
	}

	if _, err := svc.Get(context.Background(), 99); !pkgerrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
