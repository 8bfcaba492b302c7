package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"saadSocialAPI/internal/ai"
	"saadSocialAPI/internal/message"
	"saadSocialAPI/services"
)

type MessageHandler struct {
	dataService *services.DataService
	advisor     *ai.Advisor
}

func NewMessageHandler(dataService *services.DataService, advisor *ai.Advisor) *MessageHandler {
	return &MessageHandler{dataService: dataService, advisor: advisor}
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req message.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.dataService.Validate(req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	id, err := h.dataService.SendMessage(ctx, userID, req.ReceiverID, req.Text, req.Image, req.Audio)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// MarkRead flips every unread message from {peer} to the caller.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.dataService.MarkMessagesAsRead(ctx, userID, mux.Vars(r)["peer"]); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Messages marked as read"})
}

// Suggestions proposes replies when the thread ends with a text from the
// peer and answers an empty list otherwise.
func (h *MessageHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	peerID := mux.Vars(r)["peer"]

	msgs, err := h.conversation(ctx, userID, peerID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	suggestions := []string{}
	if ai.WantsSuggestions(msgs, peerID) {
		suggestions = h.advisor.SmartReply(ctx, ai.ReplyContext(msgs), *msgs[len(msgs)-1].Text)
	}

	respondWithJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (h *MessageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	peerID := mux.Vars(r)["peer"]

	peerName := "Friend"
	peer, err := h.dataService.GetUser(ctx, peerID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if peer != nil {
		peerName = peer.Name
	}

	msgs, err := h.conversation(ctx, userID, peerID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	summary := h.advisor.SummarizeChat(ctx, ai.SummaryLines(msgs, userID, peerName))
	respondWithJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (h *MessageHandler) conversation(ctx context.Context, userID, peerID string) ([]*message.Message, error) {
	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.dataService.Conversation(readCtx, userID, peerID)
}
