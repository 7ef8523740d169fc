package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echo-journal/echo-backend/internal/entries"
	"github.com/echo-journal/echo-backend/pkg/db/models"
	pkgerrors "github.com/echo-journal/echo-backend/pkg/errors"
	"github.com/echo-journal/echo-backend/pkg/types"
)

type stubEntryService struct {
	created *models.Entry
	err     error
	input   entries.CreateInput
	deleted []uuid.UUID
}

func (s *stubEntryService) Create(ctx context.Context, input entries.CreateInput) (*models.Entry, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func (s *stubEntryService) List(ctx context.Context, userID string) ([]models.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.created == nil {
		return nil, nil
	}
	return []models.Entry{*s.created}, nil
}

func (s *stubEntryService) Get(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func (s *stubEntryService) OpenAudio(ctx context.Context, id uuid.UUID) (io.ReadCloser, *models.Entry, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return io.NopCloser(bytes.NewReader([]byte("audio-bytes"))), s.created, nil
}

func (s *stubEntryService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func multipartUpload(t *testing.T, userID, questionID, mimeType string, audio []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("user_id", userID))
	require.NoError(t, writer.WriteField("question_id", questionID))

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="audio"; filename="answer.mp3"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestEntryCreateReturns201(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &stubEntryService{created: &models.Entry{
		ID:         id,
		UserID:     "alice",
		QuestionID: 1,
		AudioMime:  "audio/mpeg",
		AudioSize:  3,
	}}

	body, contentType := multipartUpload(t, "alice", "1", "audio/mpeg", []byte("mp3"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	EntryCreate(svc, nil, 1<<20)(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice", svc.input.UserID)
	assert.Equal(t, 1, svc.input.QuestionID)
	assert.Equal(t, "audio/mpeg", svc.input.MimeType)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, id.String(), data["id"])
}

func TestEntryCreateRequiresUserID(t *testing.T) {
	t.Parallel()

	body, contentType := multipartUpload(t, "", "1", "audio/mpeg", []byte("mp3"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	EntryCreate(&stubEntryService{}, nil, 1<<20)(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEntryCreateRequiresNumericQuestionID(t *testing.T) {
	t.Parallel()

	body, contentType := multipartUpload(t, "alice", "abc", "audio/mpeg", []byte("mp3"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	EntryCreate(&stubEntryService{}, nil, 1<<20)(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEntryCreateMapsServiceErrors(t *testing.T) {
	t.Parallel()

	svc := &stubEntryService{err: pkgerrors.New(pkgerrors.CodePayloadTooLarge, "audio file too large")}
	body, contentType := multipartUpload(t, "alice", "1", "audio/mpeg", []byte("mp3"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	EntryCreate(svc, nil, 1<<20)(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestEntryListRequiresUserID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil)
	rec := httptest.NewRecorder()

	EntryList(&stubEntryService{}, nil)(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEntryAudioStreamsBlob(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &stubEntryService{created: &models.Entry{
		ID:        id,
		AudioPath: "audio/" + id.String() + ".mp3",
		AudioMime: "audio/mpeg",
		AudioSize: 11,
	}}

	r := chi.NewRouter()
	r.Get("/api/v1/entries/{entryID}/audio", EntryAudio(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/"+id.String()+"/audio", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "audio-bytes", rec.Body.String())
}

func TestEntryDeleteReturns204(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &stubEntryService{created: &models.Entry{ID: id}}

	r := chi.NewRouter()
	r.Delete("/api/v1/entries/{entryID}", EntryDelete(svc, nil))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/entries/"+id.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uuid.UUID{id}, svc.deleted)
}

func TestEntryDetailRejectsBadID(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/v1/entries/{entryID}", EntryDetail(&stubEntryService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
