package controllers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/echo-journal/echo-backend/api/responses"
	"github.com/echo-journal/echo-backend/internal/entries"
	pkgerrors "github.com/echo-journal/echo-backend/pkg/errors"
	"github.com/echo-journal/echo-backend/pkg/logger"
)

// multipart form memory ceiling; files beyond this spill to disk
const multipartMemoryLimit = 4 << 20

// EntryCreate accepts a multipart upload with user_id, question_id and an
// audio file and returns the created entry.
func EntryCreate(svc entries.Service, logg *logger.Logger, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// headroom for the non-file form fields
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartMemoryLimit)
		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			if strings.Contains(err.Error(), "request body too large") {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodePayloadTooLarge, "audio file too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		userID := strings.TrimSpace(r.FormValue("user_id"))
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user_id is required"))
			return
		}

		questionID, err := strconv.Atoi(strings.TrimSpace(r.FormValue("question_id")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "question_id must be an integer"))
			return
		}

		file, header, err := r.FormFile("audio")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "audio file is required"))
			return
		}
		defer file.Close()

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithUserID(ctx, userID)
		}

		entry, err := svc.Create(ctx, entries.CreateInput{
			UserID:     userID,
			QuestionID: questionID,
			MimeType:   header.Header.Get("Content-Type"),
			Audio:      file,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entries.ToEntryOut(entry))
	}
}

// EntryList returns a user's entries, newest first.
func EntryList(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user_id is required"))
			return
		}

		rows, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries.ToEntryOuts(rows))
	}
}

// EntryDetail returns one entry.
func EntryDetail(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries.ToEntryOut(entry))
	}
}

// EntryAudio streams the stored audio blob.
func EntryAudio(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rc, entry, err := svc.OpenAudio(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", entry.AudioMime)
		w.Header().Set("Content-Length", strconv.FormatInt(entry.AudioSize, 10))
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(entry.AudioPath)))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, rc); err != nil && logg != nil {
			logg.Error(r.Context(), "stream audio", err)
		}
	}
}

// EntryDelete removes an entry, its runs and its audio blob.
func EntryDelete(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func entryIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "entryID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id must be a uuid")
	}
	return id, nil
}
