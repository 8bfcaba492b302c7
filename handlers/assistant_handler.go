package handlers

import (
	"context"
	"net/http"
	"time"

	"saadSocialAPI/internal/ai"
	"saadSocialAPI/services"
)

type AssistantHandler struct {
	dataService *services.DataService
	advisor     *ai.Advisor
}

func NewAssistantHandler(dataService *services.DataService, advisor *ai.Advisor) *AssistantHandler {
	return &AssistantHandler{dataService: dataService, advisor: advisor}
}

// Greeting is the model turn the transcript opens with.
func (h *AssistantHandler) Greeting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	acc, ok := currentAccount(ctx, w, r, h.dataService)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, ai.Turn{Role: ai.RoleModel, Text: ai.AssistantGreeting(acc.Name)})
}

func (h *AssistantHandler) Reply(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req ai.AssistantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.dataService.Validate(req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ai.Turn{Role: ai.RoleModel, Text: h.advisor.AssistantReply(ctx, req.History, req.Input)})
}
