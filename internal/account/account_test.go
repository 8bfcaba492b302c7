package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountDefaults(t *testing.T) {
	a := New("uid-1", "Alice", "alice@example.com", "555")

	assert.Equal(t, DefaultBio, a.Bio)
	assert.Equal(t, LanguageEnglish, a.Language)
	assert.True(t, a.ShowPhone)
	assert.Equal(t, "https://api.dicebear.com/7.x/avataaars/svg?seed=uid-1", a.Avatar)
	assert.NotNil(t, a.Friends)
	assert.NotNil(t, a.SentRequests)
	assert.NotNil(t, a.ReceivedRequests)
}

func TestCloneIsDeep(t *testing.T) {
	a := New("uid-1", "Alice", "alice@example.com", "555")
	a.Friends = []string{"bob"}

	c := a.Clone()
	c.Friends[0] = "mallory"
	assert.Equal(t, "bob", a.Friends[0])

	var nilAccount *Account
	assert.Nil(t, nilAccount.Clone())
}

func TestNormalizeFillsNilSets(t *testing.T) {
	a := &Account{ID: "x"}
	a.Normalize()
	assert.Equal(t, []string{}, a.Friends)
	assert.Equal(t, []string{}, a.SentRequests)
	assert.Equal(t, []string{}, a.ReceivedRequests)
	assert.Equal(t, LanguageEnglish, a.Language)
}

func TestProfileUpdate(t *testing.T) {
	assert.True(t, ProfileUpdate{}.IsEmpty())

	name := "Alicia"
	show := false
	lang := LanguageArabic
	upd := ProfileUpdate{Name: &name, ShowPhone: &show, Language: &lang}
	require.False(t, upd.IsEmpty())

	assert.Equal(t, map[string]any{"name": "Alicia", "showPhone": false, "language": "ar"}, upd.Fields())

	a := New("uid-1", "Alice", "alice@example.com", "555")
	upd.Apply(a)
	assert.Equal(t, "Alicia", a.Name)
	assert.False(t, a.ShowPhone)
	assert.Equal(t, LanguageArabic, a.Language)
	assert.Equal(t, DefaultBio, a.Bio)
}
