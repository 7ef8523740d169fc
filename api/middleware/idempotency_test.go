package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdempotencyStore struct {
	values map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func newIdempotencyRouter(store *fakeIdempotencyStore, hits *int) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/v1/entries/{entryID}/ai/process", func(w http.ResponseWriter, req *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"data":{"run_id":1}}`))
	})
	r.Get("/api/v1/entries", func(w http.ResponseWriter, req *http.Request) {
		*hits++
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	t.Parallel()

	store := newFakeIdempotencyStore()
	hits := 0
	router := newIdempotencyRouter(store, &hits)

	body := `{"force":false}`
	first := httptest.NewRequest(http.MethodPost, "/api/v1/entries/abc/ai/process", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "key-1")
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, first)

	require.Equal(t, http.StatusAccepted, rec1.Code)
	require.Equal(t, 1, hits)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/entries/abc/ai/process", strings.NewReader(body))
	second.Header.Set("Idempotency-Key", "key-1")
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, second)

	assert.Equal(t, http.StatusAccepted, rec2.Code)
	assert.Equal(t, rec1.Body.String(), rec2.Body.String())
	assert.Equal(t, 1, hits, "second request must be served from the store")
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	t.Parallel()

	store := newFakeIdempotencyStore()
	hits := 0
	router := newIdempotencyRouter(store, &hits)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/entries/abc/ai/process", strings.NewReader(`{"force":false}`))
	first.Header.Set("Idempotency-Key", "key-1")
	router.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/entries/abc/ai/process", strings.NewReader(`{"force":true}`))
	second.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, second)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, hits)
}

func TestIdempotencyIgnoresUnmatchedRoutes(t *testing.T) {
	t.Parallel()

	store := newFakeIdempotencyStore()
	hits := 0
	router := newIdempotencyRouter(store, &hits)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, hits)
	assert.Empty(t, store.values, "reads are never recorded")
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	t.Parallel()

	store := newFakeIdempotencyStore()
	hits := 0
	router := newIdempotencyRouter(store, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries/abc/ai/process", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, hits)
	assert.Empty(t, store.values, "nothing stored without a key")
}
