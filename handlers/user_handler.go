package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/services"
)

type UserHandler struct {
	dataService *services.DataService
}

func NewUserHandler(dataService *services.DataService) *UserHandler {
	return &UserHandler{dataService: dataService}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	acc, ok := currentAccount(ctx, w, r, h.dataService)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, acc)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req account.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.dataService.UpdateProfile(ctx, userID, req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	acc, err := h.dataService.GetUser(ctx, userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, acc)
}

// SearchUsers matches q against names and phone numbers and reports the
// caller's relation to each result.
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewer, ok := currentAccount(ctx, w, r, h.dataService)
	if !ok {
		return
	}

	// an empty term lists the whole scan window
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	results, err := h.dataService.SearchUsers(ctx, viewer.ID, query)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, services.Relations(viewer, results))
}

func (h *UserHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req account.FriendRequestBody
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.dataService.Validate(req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if err := h.dataService.SendFriendRequest(ctx, userID, req.TargetID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Friend request sent"})
}

func (h *UserHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.answerFriendRequest(w, r, h.dataService.AcceptFriendRequest, "Friend request accepted")
}

func (h *UserHandler) RejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.answerFriendRequest(w, r, h.dataService.RejectFriendRequest, "Friend request rejected")
}

func (h *UserHandler) answerFriendRequest(w http.ResponseWriter, r *http.Request, answer func(ctx context.Context, userID, requesterID string) error, done string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	requesterID := mux.Vars(r)["id"]
	if requesterID == "" {
		respondWithError(w, http.StatusBadRequest, "Requester id is required")
		return
	}

	if err := answer(ctx, userID, requesterID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": done})
}
