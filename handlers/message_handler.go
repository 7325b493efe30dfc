package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"community-backend/models"
	"community-backend/services"
)

type MessageHandler struct {
	svc *services.MessageService
}

func NewMessageHandler(s *services.MessageService) *MessageHandler {
	return &MessageHandler{svc: s}
}

// Messages handles POST (the durable write that precedes a relay emit) and
// GET (history by conversation).
func (h *MessageHandler) Messages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.send(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		respondWithError(w, "Method not allowed", "Use GET or POST method", http.StatusMethodNotAllowed)
	}
}

func (h *MessageHandler) send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string             `json:"conversation_id"`
		Content        string             `json:"content"`
		Kind           models.MessageKind `json:"type"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}
	if req.ConversationID == "" {
		respondWithError(w, "Missing fields", "conversation_id is required", http.StatusBadRequest)
		return
	}

	msg, err := h.svc.Send(req.ConversationID, callerID(r), req.Content, req.Kind)
	if err != nil {
		respondWithError(w, "Failed to send message", err.Error(), http.StatusBadRequest)
		return
	}

	respondWithSuccess(w, msg)
}

func (h *MessageHandler) list(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		respondWithError(w, "Missing parameter", "conversationId query parameter is required", http.StatusBadRequest)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	msgs, err := h.svc.List(conversationID, callerID(r), limit)
	if err != nil {
		respondWithError(w, "Failed to fetch messages", err.Error(), http.StatusBadRequest)
		return
	}

	respondWithSuccess(w, msgs)
}
