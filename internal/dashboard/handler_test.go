package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/support-triage-poc/server/internal/agent/model"
	errx "github.com/support-triage-poc/server/internal/core/error"
)

func newTestRouter(t *testing.T, runner Triager) (*gin.Engine, *Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, _ := newTestSession(t, runner, nil)
	return NewRouter(NewHandler(s), prometheus.NewRegistry()), s
}

func do(router http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_Health(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandler_Queue(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodGet, "/api/queue")
	require.Equal(t, http.StatusOK, w.Code)

	var resp QueueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Queue, 3)
	assert.Equal(t, "TKT-501", resp.Queue[0].ID)
	assert.Equal(t, "Webhook_Signature_Mismatch", resp.Queue[0].IssueCode)
	assert.Empty(t, resp.Pending)
	assert.Equal(t, 3, resp.Stats.Queued)
}

func TestHandler_Signals(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodGet, "/api/signals")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "QuickCart")
	assert.Contains(t, w.Body.String(), "Critical_Database_Corruption")
}

func TestHandler_Triage(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/tickets/TKT-501/triage")
	require.Equal(t, http.StatusOK, w.Code)

	var resp TriageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.RiskLow, resp.Result.RiskLevel)
	assert.Equal(t, model.ActionAutoFix, resp.Result.ActionType)
	assert.False(t, resp.NeedsApproval)
	assert.False(t, resp.NeedsReview)
	assert.Contains(t, resp.Narrative, "MIGRATION-INDUCED GAP")
	assert.NotContains(t, resp.Narrative, "CONFIDENCE_SCORE")
	assert.Equal(t, "Fix verified. System stable.", resp.Decision)

	w = do(router, http.MethodGet, "/api/audit")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []model.AuditEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "TKT-501", entries[0].ID)
}

func TestHandler_Triage_Errors(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/tickets/TKT-999/triage")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to triage ticket", resp.Error)

	failing, _ := newTestRouter(t, failingRunner{err: errx.WrapGeneration(errors.New("boom"))})
	w = do(failing, http.MethodPost, "/api/tickets/TKT-501/triage")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandler_ApprovalFlow(t *testing.T) {
	router, s := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/tickets/TKT-502/approve")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/api/tickets/TKT-503/triage")
	require.Equal(t, http.StatusOK, w.Code)
	var resp TriageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.NeedsApproval)
	assert.Equal(t, model.OutcomeAwaitingApproval, resp.Result.Outcome)

	w = do(router, http.MethodPost, "/api/tickets/TKT-503/reject")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"action":"HUMAN_REJECTED"}`, w.Body.String())
	assert.Empty(t, s.Pending())
}

func TestHandler_Page(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Migration Support Triage")
	assert.Contains(t, body, "TKT-501")
	assert.Contains(t, body, "Headless (45% migrated)")
}

func TestHandler_FormActionsRedirect(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/tickets/TKT-501/triage")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?ticket=TKT-501", w.Header().Get("Location"))

	w = do(router, http.MethodGet, "/?ticket=TKT-501")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Latest run: TKT-501")

	w = do(router, http.MethodPost, "/tickets/TKT-501/approve")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/?error=")
}

func TestHandler_Metrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	s, _ := buildSession(t, nil, nil, reg)
	router := NewRouter(NewHandler(s), reg)

	w := do(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "queued_tickets 3")
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	router := gin.New()
	router.Use(requestLogger(&logger))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	do(router, http.MethodGet, "/ping")
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), `"path":"/ping"`)
	assert.Contains(t, buf.String(), `"status":200`)

	buf.Reset()
	do(router, http.MethodGet, "/boom")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"status":502`)
}
