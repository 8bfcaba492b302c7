package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/locale"
)

type localeResponse struct {
	Language account.Language  `json:"language"`
	Dir      string            `json:"dir"`
	Strings  map[string]string `json:"strings"`
}

// GetLocale serves the translation table so the browser renders without a
// request per key. Unknown languages get English.
func GetLocale(w http.ResponseWriter, r *http.Request) {
	t := locale.New(account.Language(mux.Vars(r)["lang"]))
	respondWithJSON(w, http.StatusOK, localeResponse{
		Language: t.Language(),
		Dir:      t.Dir(),
		Strings:  locale.Table(t.Language()),
	})
}
