package handlers

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"saadSocialAPI/internal/logger"
	"saadSocialAPI/services"
)

type LiveHandler struct {
	hub      *services.LiveHub
	upgrader websocket.Upgrader
}

// NewLiveHandler accepts upgrades from allowedOrigins; "*" allows any.
func NewLiveHandler(hub *services.LiveHub, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Connect upgrades an authenticated request and hands the socket to the
// hub, which owns it from then on.
func (h *LiveHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Warn("Could not upgrade connection", zap.String("user_id", userID), zap.Error(err))
		return
	}

	if _, err := h.hub.Attach(ws, userID); err != nil {
		logger.L().Warn("Could not start live session", zap.String("user_id", userID), zap.Error(err))
	}
}
