package controllers

import (
	"net/http"
	"time"

	"github.com/echo-journal/echo-backend/api/responses"
	"github.com/echo-journal/echo-backend/internal/questions"
	"github.com/echo-journal/echo-backend/pkg/logger"
)

// QuestionToday returns the rotating question of the day.
func QuestionToday(svc questions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.Today(r.Context(), time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"id":       q.ID,
			"text":     q.Text,
			"category": q.Category,
		})
	}
}
