package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/apperr"
	"saadSocialAPI/internal/locale"
	"saadSocialAPI/internal/logger"
	"saadSocialAPI/middleware"
	"saadSocialAPI/services"
)

// maxBodyBytes leaves room for a base64 avatar or post image.
const maxBodyBytes = 8 << 20

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithAppError renders err in the caller's language. Provider detail
// stays in the log.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		logger.L().Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", kind.String()),
			zap.Error(err))
	} else {
		logger.L().Debug("Request rejected", zap.String("kind", kind.String()), zap.Error(err))
	}

	key := apperr.KeyOf(err)
	respondWithJSON(w, status, map[string]string{
		"error": locale.Lookup(requestLanguage(r), key),
		"key":   key,
		"kind":  kind.String(),
	})
}

// requestLanguage prefers ?lang= and then the first Accept-Language tag.
func requestLanguage(r *http.Request) account.Language {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return account.Language(lang)
	}
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return account.LanguageEnglish
	}
	first, _, _ := strings.Cut(header, ",")
	tag, _, _ := strings.Cut(strings.TrimSpace(first), ";")
	base, _, _ := strings.Cut(tag, "-")
	return account.Language(strings.ToLower(base))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithAppError(w, r, apperr.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// currentAccount loads the caller's record, answering 404 when the
// identity has no stored profile.
func currentAccount(ctx context.Context, w http.ResponseWriter, r *http.Request, svc *services.DataService) (*account.Account, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	acc, err := svc.GetUser(ctx, userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return nil, false
	}
	if acc == nil {
		respondWithAppError(w, r, apperr.New(apperr.KindNotFound, "error_not_found", "account not found"))
		return nil, false
	}
	return acc, true
}
