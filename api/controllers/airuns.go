package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/echo-journal/echo-backend/api/responses"
	"github.com/echo-journal/echo-backend/api/validators"
	"github.com/echo-journal/echo-backend/internal/airuns"
	pkgerrors "github.com/echo-journal/echo-backend/pkg/errors"
	"github.com/echo-journal/echo-backend/pkg/logger"
)

// EntryProcess queues AI processing for an entry, or reports the run that
// already covers the request. 200 means reused, 202 means queued.
func EntryProcess(svc airuns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input airuns.ProcessInput
		if err := validators.DecodeOptionalJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithEntryID(ctx, id.String())
		}

		result, err := svc.Process(ctx, id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusAccepted
		if result.Reused {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// EntryAIStatus returns the entry's AI projection plus its latest run.
func EntryAIStatus(svc airuns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.EntryAI(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// RunDetail returns one processing run.
func RunDetail(svc airuns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "runID")
		runID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "run id must be an integer"))
			return
		}
		run, err := svc.GetRun(r.Context(), runID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, run)
	}
}
