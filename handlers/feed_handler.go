package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"saadSocialAPI/internal/ai"
	"saadSocialAPI/internal/apperr"
	"saadSocialAPI/internal/post"
	"saadSocialAPI/services"
)

type FeedHandler struct {
	dataService *services.DataService
	advisor     *ai.Advisor
}

func NewFeedHandler(dataService *services.DataService, advisor *ai.Advisor) *FeedHandler {
	return &FeedHandler{dataService: dataService, advisor: advisor}
}

func (h *FeedHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	author, ok := currentAccount(ctx, w, r, h.dataService)
	if !ok {
		return
	}

	var req post.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.dataService.Validate(req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	id, err := h.dataService.CreatePost(ctx, author, req.Text, req.Image)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *FeedHandler) AddReaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req post.ReactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	kind, err := post.ParseReactionKind(req.Kind)
	if err != nil {
		respondWithAppError(w, r, apperr.Wrap(apperr.KindValidation, "error_validation", "invalid reaction", err))
		return
	}

	if err := h.dataService.AddReaction(ctx, mux.Vars(r)["id"], userID, kind); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Reaction updated"})
}

func (h *FeedHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	author, ok := currentAccount(ctx, w, r, h.dataService)
	if !ok {
		return
	}

	var req post.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.dataService.AddComment(ctx, mux.Vars(r)["id"], author, req.Text); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Comment added"})
}

// SuggestCaption never fails on the model side: the advisor falls back to
// the draft.
func (h *FeedHandler) SuggestCaption(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req post.CaptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"caption": h.advisor.SuggestCaption(ctx, req.Draft, req.Image)})
}
