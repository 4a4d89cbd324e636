package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/cura-ai/scheduling-assistant/internal/api/handlers"
	"github.com/cura-ai/scheduling-assistant/internal/conversation"
	"github.com/cura-ai/scheduling-assistant/internal/extract"
	"github.com/cura-ai/scheduling-assistant/internal/patients"
	"github.com/cura-ai/scheduling-assistant/internal/scheduling"
	"github.com/cura-ai/scheduling-assistant/internal/store"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

type noopNotifier struct{}

func (noopNotifier) SendConfirmation(_ context.Context, _ *store.Booking) error { return nil }
func (noopNotifier) SendCancellation(_ context.Context, _ *store.Booking) error { return nil }
func (noopNotifier) SendIntakeForm(_ context.Context, _ *store.Booking) error   { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	quiet := logging.New("error")

	st, err := store.NewCSVStore(t.TempDir(), []int{3, 2, 1}, quiet)
	require.NoError(t, err)
	require.NoError(t, st.SaveSlots([]store.Slot{
		{ID: "s1", Doctor: "Dr. Mehta", Date: time.Now().UTC().AddDate(0, 0, 7), Start: "09:00", End: "09:30"},
	}))

	driver := conversation.NewDriver(
		extract.NewHeuristicExtractor(),
		patients.NewResolver(st, "+91", quiet),
		scheduling.New(st, quiet),
		st,
		noopNotifier{},
		nil,
		"Cura Health Clinic",
		"+91",
		nil,
		quiet,
	)
	chat := handlers.NewChatHandler(conversation.NewMemorySessionStore(), driver, quiet)

	reg := prometheus.NewRegistry()
	return New(&Config{
		Logger:         quiet,
		ChatHandler:    chat,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterMetrics(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterChat(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cura Health Clinic")
}

func TestRouterChatWebsocket(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, websocket.JSON.Send(conn, map[string]string{"message": "hello"}))

	var resp struct {
		SessionID string `json:"session_id"`
		Reply     string `json:"reply"`
		Stage     string `json:"stage"`
	}
	require.NoError(t, websocket.JSON.Receive(conn, &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.Reply, "Cura Health Clinic")
	assert.Equal(t, "collecting_info", resp.Stage)
}
