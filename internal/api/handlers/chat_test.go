package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newChatHandler(t *testing.T) *ChatHandler {
	t.Helper()
	quiet := logging.New("error")

	st, err := store.NewCSVStore(t.TempDir(), []int{3, 2, 1}, quiet)
	require.NoError(t, err)
	day := time.Now().UTC().AddDate(0, 0, 7)
	require.NoError(t, st.SaveSlots([]store.Slot{
		{ID: "s1", Doctor: "Dr. Mehta", Date: day, Start: "09:00", End: "09:30"},
		{ID: "s2", Doctor: "Dr. Mehta", Date: day, Start: "09:30", End: "10:00"},
	}))
	_, err = st.UpsertPatient(store.Patient{
		Name:  "Ravi Kumar",
		DOB:   "14-02-1990",
		Phone: "+919812345678",
		Email: "ravi@example.com",
	})
	require.NoError(t, err)

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
	return NewChatHandler(conversation.NewMemorySessionStore(), driver, quiet)
}

func postChat(t *testing.T, h *ChatHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func TestChatStartsNewSession(t *testing.T) {
	h := newChatHandler(t)

	rec := postChat(t, h, chatRequest{Message: "hello"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.Reply, "Cura Health Clinic")
	assert.Equal(t, string(conversation.StageCollectingInfo), resp.Stage)
	assert.False(t, resp.Done)
}

func TestChatContinuesExistingSession(t *testing.T) {
	h := newChatHandler(t)

	rec := postChat(t, h, chatRequest{Message: "hello"})
	var first chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec = postChat(t, h, chatRequest{
		SessionID: first.SessionID,
		Message:   "my name is Ravi Kumar, my dob is 14-02-1990 and I want to see Dr. Mehta",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var second chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Contains(t, second.Reply, "Welcome back")
	assert.Equal(t, string(conversation.StageCollectingDate), second.Stage)
}

func TestChatRequiresMessage(t *testing.T) {
	h := newChatHandler(t)

	rec := postChat(t, h, chatRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatRejectsInvalidJSON(t *testing.T) {
	h := newChatHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUnknownSession(t *testing.T) {
	h := newChatHandler(t)

	rec := postChat(t, h, chatRequest{SessionID: "does-not-exist", Message: "hi"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
