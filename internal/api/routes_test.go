package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fraudnets/detection-engine/internal/config"
	"github.com/fraudnets/detection-engine/internal/engine"
	"github.com/fraudnets/detection-engine/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, cfg config.ServerConfig) *gin.Engine {
	t.Helper()
	if cfg.RateLimitPerMin == 0 {
		cfg.RateLimitPerMin = 6000
		cfg.RateLimitBurst = 100
	}
	eng := engine.New(engine.DefaultParams(), nil)
	hub := NewHub(nil)
	go hub.Run()
	return SetupRouter(eng, nil, hub, cfg, false, zap.NewNop())
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cycleRequest() AnalyzeRequest {
	return AnalyzeRequest{Transactions: []models.Transaction{
		{TxID: "t1", Sender: "A", Receiver: "B", Amount: 30000},
		{TxID: "t2", Sender: "B", Receiver: "C", Amount: 29500},
		{TxID: "t3", Sender: "C", Receiver: "A", Amount: 29800},
	}}
}

func TestRootAndHealth(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{})

	w := doJSON(t, r, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["api"])
	assert.Equal(t, false, health["dbConnected"])
}

func TestAnalyzeEndpoint_CycleVerdict(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/analyze", cycleRequest(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result models.DetectionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.IsFraud)
	assert.Equal(t, models.FraudCycle, result.FraudType)
	assert.Equal(t, []string{"A", "B", "C"}, result.FlaggedAccounts)
	assert.NotEmpty(t, result.RiskScores)
}

func TestAnalyzeEndpoint_MalformedBody(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeEndpoint_ValidationFailure(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{})

	bad := AnalyzeRequest{Transactions: []models.Transaction{
		{TxID: "t1", Sender: "A", Receiver: "B", Amount: 100},
		{TxID: "t2", Sender: "C", Receiver: "C", Amount: 100},
	}}
	w := doJSON(t, r, http.MethodPost, "/api/v1/analyze", bad, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	validation, ok := body["validation"].(map[string]any)
	require.True(t, ok, "expected structured validation detail, got %v", body)
	assert.Equal(t, float64(1), validation["index"])
	assert.Equal(t, "receiver", validation["field"])
}

func TestStatsBlacklistAndReset(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/analyze", cycleRequest(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.StatsSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, uint64(1), stats.TotalAnalyses)
	assert.Equal(t, uint64(1), stats.FraudsDetected)
	assert.Equal(t, 3, stats.NodeCount)

	w = doJSON(t, r, http.MethodGet, "/api/v1/blacklist", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bl struct {
		Blacklist []string `json:"blacklist"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bl))
	assert.Equal(t, []string{"A", "B", "C"}, bl.Blacklist)

	w = doJSON(t, r, http.MethodPost, "/api/v1/reset", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/stats", nil, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalAnalyses)
	assert.Zero(t, stats.NodeCount)
}

func TestGraphEndpoint(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/analyze", cycleRequest(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/graph", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var export models.GraphExport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &export))
	assert.Len(t, export.Nodes, 3)
	assert.Len(t, export.Edges, 3)
	for _, n := range export.Nodes {
		assert.True(t, n.IsBlacklisted, "cycle member %s should be blacklisted", n.ID)
	}
}

func TestDetectionsWithoutStore(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{})

	w := doJSON(t, r, http.MethodGet, "/api/v1/detections", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGenerateSample_FeedsBackThroughAnalyze(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{})

	tests := []struct {
		pattern string
		want    models.FraudType
	}{
		{"cycle", models.FraudCycle},
		{"smurf", models.FraudSmurfing},
		{"structuring", models.FraudStructuring},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/demo/generate-sample?pattern="+tt.pattern, nil, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var sample struct {
				Transactions []models.Transaction `json:"transactions"`
				Pattern      string               `json:"pattern"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sample))
			assert.Equal(t, tt.pattern, sample.Pattern)
			require.NotEmpty(t, sample.Transactions)

			// The verdict is re-derived by the pipeline, not implied by the
			// requested pattern.
			w = doJSON(t, r, http.MethodPost, "/api/v1/analyze", AnalyzeRequest{Transactions: sample.Transactions}, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var result models.DetectionResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, tt.want, result.FraudType)

			// Isolate patterns from each other.
			w = doJSON(t, r, http.MethodPost, "/api/v1/reset", nil, nil)
			require.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestGenerateSample_UnknownPattern(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/demo/generate-sample?pattern=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_ProtectsMutatingRoutes(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{AuthToken: "s3cret"})

	// Reads stay public.
	w := doJSON(t, r, http.MethodGet, "/api/v1/stats", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Mutations require the bearer token.
	w = doJSON(t, r, http.MethodPost, "/api/v1/analyze", cycleRequest(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/analyze", cycleRequest(), map[string]string{
		"Authorization": "Bearer wrong",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/analyze", cycleRequest(), map[string]string{
		"Authorization": "Bearer s3cret",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	r := newTestRouter(t, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
