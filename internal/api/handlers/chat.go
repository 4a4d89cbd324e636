package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/cura-ai/scheduling-assistant/internal/conversation"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

// ChatHandler exposes the scheduling conversation over HTTP and websocket.
type ChatHandler struct {
	sessions conversation.SessionStore
	driver   *conversation.Driver
	logger   *logging.Logger
}

func NewChatHandler(sessions conversation.SessionStore, driver *conversation.Driver, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{sessions: sessions, driver: driver, logger: logger}
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Stage     string `json:"stage"`
	Done      bool   `json:"done"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Chat handles one message of a conversation. An empty session_id starts a
// new conversation; the returned session_id is echoed back on later calls.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Message == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	session, err := h.loadOrStart(r, req.SessionID)
	if err != nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "unknown or expired session"})
		return
	}

	reply, err := h.driver.Handle(r.Context(), session, req.Message)
	if err != nil {
		h.logger.Error("chat turn failed", "session_id", session.ID, "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "something went wrong handling your message"})
		return
	}
	if err := h.sessions.Save(r.Context(), session); err != nil {
		h.logger.Error("session save failed", "session_id", session.ID, "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "something went wrong handling your message"})
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		SessionID: session.ID,
		Reply:     reply,
		Stage:     string(session.Stage),
		Done:      !session.Active(),
	})
}

func (h *ChatHandler) loadOrStart(r *http.Request, sessionID string) (*conversation.Session, error) {
	if sessionID == "" {
		return conversation.NewSession(), nil
	}
	session, err := h.sessions.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, conversation.ErrSessionNotFound) {
			return nil, err
		}
		h.logger.Error("session load failed", "session_id", sessionID, "error", err)
		return nil, err
	}
	return session, nil
}

// ChatWS upgrades to a websocket and runs one conversation per connection.
// Frames are the same JSON shapes as the HTTP endpoint, without session_id
// plumbing: the connection is the session.
func (h *ChatHandler) ChatWS(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *ChatHandler) serveWS(conn *websocket.Conn, r *http.Request) {
	defer conn.Close()
	session := conversation.NewSession()

	for session.Active() {
		var req chatRequest
		if err := websocket.JSON.Receive(conn, &req); err != nil {
			return
		}
		if req.Message == "" {
			_ = websocket.JSON.Send(conn, errorResponse{Error: "message is required"})
			continue
		}

		reply, err := h.driver.Handle(r.Context(), session, req.Message)
		if err != nil {
			h.logger.Error("chat turn failed", "session_id", session.ID, "error", err)
			_ = websocket.JSON.Send(conn, errorResponse{Error: "something went wrong handling your message"})
			continue
		}
		if err := h.sessions.Save(r.Context(), session); err != nil {
			h.logger.Error("session save failed", "session_id", session.ID, "error", err)
		}

		_ = websocket.JSON.Send(conn, chatResponse{
			SessionID: session.ID,
			Reply:     reply,
			Stage:     string(session.Stage),
			Done:      !session.Active(),
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
