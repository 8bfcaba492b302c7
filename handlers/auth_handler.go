package handlers

import (
	"context"
	"net/http"
	"time"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/services"
)

type AuthHandler struct {
	dataService *services.DataService
}

func NewAuthHandler(dataService *services.DataService) *AuthHandler {
	return &AuthHandler{dataService: dataService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req account.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acc, session, err := h.dataService.Register(ctx, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, account.LoginResponse{Account: acc, Token: session.Token})
}

// Login answers with a null account when the identity signed in but has no
// stored record yet. The token is still valid.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req account.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acc, session, err := h.dataService.Login(ctx, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, account.LoginResponse{Account: acc, Token: session.Token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.dataService.Logout(ctx, userID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}
