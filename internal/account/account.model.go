package account

import "slices"

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

const DefaultBio = "Hello, I am using Saad Social App!"

type Account struct {
	ID               string   `json:"id" firestore:"id"`
	Name             string   `json:"name" firestore:"name"`
	Email            string   `json:"email" firestore:"email"`
	Phone            string   `json:"phone" firestore:"phone"`
	ShowPhone        bool     `json:"showPhone" firestore:"showPhone"`
	Avatar           string   `json:"avatar" firestore:"avatar"`
	Bio              string   `json:"bio" firestore:"bio"`
	Language         Language `json:"language" firestore:"language"`
	Friends          []string `json:"friends" firestore:"friends"`
	SentRequests     []string `json:"sentRequests" firestore:"sentRequests"`
	ReceivedRequests []string `json:"receivedRequests" firestore:"receivedRequests"`
}

// New builds the record written at registration: empty friend sets and an
// avatar seeded by the account id.
func New(id, name, email, phone string) *Account {
	return &Account{
		ID:               id,
		Name:             name,
		Email:            email,
		Phone:            phone,
		ShowPhone:        true,
		Avatar:           AvatarURL(id),
		Bio:              DefaultBio,
		Language:         LanguageEnglish,
		Friends:          []string{},
		SentRequests:     []string{},
		ReceivedRequests: []string{},
	}
}

func AvatarURL(seed string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + seed
}

// Clone returns a deep copy so listeners never share slices with the store.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Friends = cloneSet(a.Friends)
	c.SentRequests = cloneSet(a.SentRequests)
	c.ReceivedRequests = cloneSet(a.ReceivedRequests)
	return &c
}

func (a *Account) IsFriend(id string) bool {
	return slices.Contains(a.Friends, id)
}

// Normalize replaces nil sets with empty ones, which is how documents
// written by older clients come back from the backend.
func (a *Account) Normalize() {
	if a.Friends == nil {
		a.Friends = []string{}
	}
	if a.SentRequests == nil {
		a.SentRequests = []string{}
	}
	if a.ReceivedRequests == nil {
		a.ReceivedRequests = []string{}
	}
	if a.Language == "" {
		a.Language = LanguageEnglish
	}
}

func cloneSet(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
