// Package locale holds the display language, the text direction flag and
// key lookup with fallback to English and then to the key itself.
package locale

import (
	"sync"

	"saadSocialAPI/internal/account"
)

type Translator struct {
	mu   sync.RWMutex
	lang account.Language
}

func New(lang account.Language) *Translator {
	t := &Translator{}
	t.SetLanguage(lang)
	return t
}

func (t *Translator) Language() account.Language {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// SetLanguage switches the current language. Unknown tags fall back to English.
func (t *Translator) SetLanguage(lang account.Language) {
	if _, ok := translations[lang]; !ok {
		lang = account.LanguageEnglish
	}
	t.mu.Lock()
	t.lang = lang
	t.mu.Unlock()
}

func (t *Translator) IsRTL() bool {
	return IsRTL(t.Language())
}

func (t *Translator) Dir() string {
	if t.IsRTL() {
		return "rtl"
	}
	return "ltr"
}

func (t *Translator) T(key string) string {
	return Lookup(t.Language(), key)
}

func IsRTL(lang account.Language) bool {
	return lang == account.LanguageArabic
}

func Lookup(lang account.Language, key string) string {
	if s, ok := translations[lang][key]; ok && s != "" {
		return s
	}
	if s, ok := translations[account.LanguageEnglish][key]; ok && s != "" {
		return s
	}
	return key
}

// Table returns a copy of the full table for lang merged over English, so a
// browser view can render without a round trip per key.
func Table(lang account.Language) map[string]string {
	out := make(map[string]string, len(translations[account.LanguageEnglish]))
	for k, v := range translations[account.LanguageEnglish] {
		out[k] = v
	}
	for k, v := range translations[lang] {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
