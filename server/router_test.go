package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvn3toj/beforenostr-sub004/domain/dto"
	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/realtime"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/utils"
	httpHandler "github.com/kvn3toj/beforenostr-sub004/interfaces/http"
	"github.com/kvn3toj/beforenostr-sub004/server"
	"github.com/kvn3toj/beforenostr-sub004/usecase"
)

const testSecret = "test-secret"

type stubBatch struct {
	modes []model.RecalculationMode
}

func (s *stubBatch) Run(_ context.Context, mode model.RecalculationMode) (*model.RecalculationSummary, error) {
	s.modes = append(s.modes, mode)
	return &model.RecalculationSummary{RunID: "run-1", Mode: mode, Total: 2, Updated: 2}, nil
}

func newTestRouter(t *testing.T, batch usecase.IBatchRecalculator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	extractor := usecase.NewMetadataExtractor()
	estimator := usecase.NewHeuristicEstimator(usecase.DefaultHeuristicConfig())
	resolver := usecase.NewDurationResolver(usecase.ResolverConfig{}, extractor, nil,
		usecase.NewDefaultStrategies(nil, nil, nil, nil, estimator))

	handler := httpHandler.NewVideoDurationHandler(extractor, resolver, batch, nil, nil)
	return server.InitiateRouter(handler, realtime.NewDurationHub(), testSecret)
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := utils.GenerateToken(map[string]interface{}{
		"sub": "operator",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(router *gin.Engine, method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","cache":"down"}`, w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ResolveRequiresToken(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/videos/duration/resolve", `{"content":"dQw4w9WgXcQ"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodPost, "/api/videos/duration/resolve", `{"content":"dQw4w9WgXcQ"}`, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_Resolve(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/videos/duration/resolve",
		`{"content":"{\"title\":\"Documental del bosque\"}"}`, bearer(t))
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.ResolveDurationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 6000, res.Seconds)
	assert.Equal(t, "category_heuristic", res.Source)
	assert.False(t, res.FromCache)
}

func TestRouter_ResolveHashFallback(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/videos/duration/resolve", `{"content":"https://youtu.be/dQw4w9WgXcQ"}`, bearer(t))
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.ResolveDurationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "dQw4w9WgXcQ", res.ExternalID)
	assert.Equal(t, "hash_fallback", res.Source)
}

func TestRouter_ResolveExtractionFailure(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/videos/duration/resolve", `{"content":"{}"}`, bearer(t))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doRequest(router, http.MethodPost, "/api/videos/duration/resolve", `{}`, bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Recalculate(t *testing.T) {
	batch := &stubBatch{}
	router := newTestRouter(t, batch)

	w := doRequest(router, http.MethodPost, "/api/videos/duration/recalculate-missing", "", bearer(t))
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(router, http.MethodPost, "/api/videos/duration/recalculate-all", "", bearer(t))
	require.Equal(t, http.StatusOK, w.Code)

	var summary model.RecalculationSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, model.RecalculateForceAll, summary.Mode)
	assert.Equal(t, []model.RecalculationMode{model.RecalculateOnlyMissing, model.RecalculateForceAll}, batch.modes)
}

func TestRouter_RecalculateWithoutStore(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/videos/duration/recalculate-all", "", bearer(t))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doRequest(router, http.MethodGet, "/api/videos/duration/runs?limit=5", "", bearer(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRouter_EventsRequiresToken(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/videos/duration/events", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
