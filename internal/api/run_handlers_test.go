package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/antekone/gaeta/internal/store"
)

type mockRunRepo struct {
	runs       []store.RunRecord
	err        error
	lastStatus *store.RunStatus
	lastLimit  int
	lastOffset int
}

func (m *mockRunRepo) StartRun(context.Context, uuid.UUID, time.Time) error { return m.err }

func (m *mockRunRepo) RecordEstimate(context.Context, uuid.UUID, time.Time, store.Estimate, int64) error {
	return m.err
}

func (m *mockRunRepo) FinishRun(context.Context, uuid.UUID, time.Time, store.RunStatus, *string) error {
	return m.err
}

func (m *mockRunRepo) GetRun(_ context.Context, id uuid.UUID) (store.RunRecord, error) {
	if m.err != nil {
		return store.RunRecord{}, m.err
	}
	for _, run := range m.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return store.RunRecord{}, store.ErrNotFound
}

func (m *mockRunRepo) ListRuns(_ context.Context, status *store.RunStatus, limit, offset int) ([]store.RunRecord, error) {
	m.lastStatus = status
	m.lastLimit = limit
	m.lastOffset = offset
	if m.err != nil {
		return nil, m.err
	}
	return m.runs, nil
}

func withRunIDParam(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("run_id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestRunHandlerListRuns forwards filters and paging to the repository.
func TestRunHandlerListRuns(t *testing.T) {
	t.Parallel()

	repo := &mockRunRepo{runs: []store.RunRecord{{
		ID:        uuid.New(),
		Status:    store.RunDone,
		StartedAt: time.Now().Add(-time.Hour),
		Last:      store.Estimate{Current: 10, Max: 10, Progress: 100, Speed: 2},
	}}}
	handler := NewRunHandler(repo, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/runs?status=success&limit=9999&offset=2", nil)
	rec := httptest.NewRecorder()
	handler.ListRuns(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.lastStatus)
	require.Equal(t, store.RunDone, *repo.lastStatus)
	require.Equal(t, maxRunLimit, repo.lastLimit)
	require.Equal(t, 2, repo.lastOffset)

	var body map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["runs"], 1)
	require.Equal(t, float64(100), body["runs"][0]["progress"])
}

// TestRunHandlerListRunsBadQuery rejects malformed filters.
func TestRunHandlerListRunsBadQuery(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(&mockRunRepo{}, nil)
	for _, target := range []string{
		"/v1/runs?limit=0",
		"/v1/runs?limit=abc",
		"/v1/runs?offset=-1",
		"/v1/runs?status=paused",
	} {
		rec := httptest.NewRecorder()
		handler.ListRuns(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

// TestRunHandlerListRunsFailure maps repository errors to 500.
func TestRunHandlerListRunsFailure(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(&mockRunRepo{err: errors.New("boom")}, zap.NewNop())
	rec := httptest.NewRecorder()
	handler.ListRuns(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

// TestRunHandlerGetRun covers found, missing, malformed and failing lookups.
func TestRunHandlerGetRun(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	msg := "feed ended before completion"
	finished := time.Unix(200, 0)
	repo := &mockRunRepo{runs: []store.RunRecord{{
		ID:           id,
		Status:       store.RunError,
		StartedAt:    time.Unix(100, 0),
		FinishedAt:   &finished,
		ErrorMessage: &msg,
		Last:         store.Estimate{Progress: math.NaN(), Speed: math.Inf(1)},
	}}}
	handler := NewRunHandler(repo, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.GetRun(rec, withRunIDParam(httptest.NewRequest(http.MethodGet, "/", nil), id.String()))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "error", body["run"]["status"])
	require.Equal(t, msg, body["run"]["error"])
	require.Nil(t, body["run"]["progress"])
	require.Nil(t, body["run"]["speed"])

	rec = httptest.NewRecorder()
	handler.GetRun(rec, withRunIDParam(httptest.NewRequest(http.MethodGet, "/", nil), uuid.NewString()))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.GetRun(rec, withRunIDParam(httptest.NewRequest(http.MethodGet, "/", nil), "not-a-uuid"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	failing := NewRunHandler(&mockRunRepo{err: errors.New("boom")}, zap.NewNop())
	rec = httptest.NewRecorder()
	failing.GetRun(rec, withRunIDParam(httptest.NewRequest(http.MethodGet, "/", nil), id.String()))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

// TestRunHandlerLatest asks the repository for a single newest run.
func TestRunHandlerLatest(t *testing.T) {
	t.Parallel()

	repo := &mockRunRepo{runs: []store.RunRecord{{ID: uuid.New(), Status: store.RunRunning}}}
	handler := NewRunHandler(repo, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Latest(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, repo.lastStatus)
	require.Equal(t, 1, repo.lastLimit)
}
