package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"saadSocialAPI/internal/environment"
)

type HomeHandler struct {
	environment *environment.Service
}

func NewHomeHandler(environment *environment.Service) *HomeHandler {
	return &HomeHandler{environment: environment}
}

// GetHome answers with whatever widgets could be fetched; failed ones are
// null.
func (h *HomeHandler) GetHome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	if _, ok := requireUser(w, r); !ok {
		return
	}

	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		respondWithError(w, http.StatusBadRequest, "Query parameters 'lat' and 'lon' must be valid coordinates")
		return
	}

	respondWithJSON(w, http.StatusOK, h.environment.Home(ctx, lat, lon))
}
