package handlers

import (
	"encoding/json"
	"net/http"

	"community-backend/models"
	"community-backend/services"
)

type ConversationHandler struct {
	svc *services.ConversationService
}

func NewConversationHandler(s *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: s}
}

// Conversations handles POST (create) and GET (list for caller).
func (h *ConversationHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		respondWithError(w, "Method not allowed", "Use GET or POST method", http.StatusMethodNotAllowed)
	}
}

func (h *ConversationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind           models.ConversationKind `json:"kind"`
		ParticipantIDs []string                `json:"participant_ids"`
		DisplayName    string                  `json:"display_name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}

	// The caller is always a participant of what they create.
	participants := append([]string{callerID(r)}, req.ParticipantIDs...)

	conv, err := h.svc.Create(req.Kind, participants, req.DisplayName)
	if err != nil {
		respondWithError(w, "Conversation creation failed", err.Error(), http.StatusBadRequest)
		return
	}

	respondWithSuccess(w, conv)
}

func (h *ConversationHandler) list(w http.ResponseWriter, r *http.Request) {
	convs, err := h.svc.ListForUser(callerID(r))
	if err != nil {
		respondWithError(w, "Internal error", "Failed to list conversations", http.StatusInternalServerError)
		return
	}
	respondWithSuccess(w, convs)
}

// Conversation handles GET of a single conversation by id.
func (h *ConversationHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", "Use GET method", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		respondWithError(w, "Missing parameter", "id query parameter is required", http.StatusBadRequest)
		return
	}

	conv, err := h.svc.Get(id, callerID(r))
	if err != nil {
		respondWithError(w, "Not found", err.Error(), http.StatusNotFound)
		return
	}
	respondWithSuccess(w, conv)
}
