// Package memory is an in-process backend with live listeners, used for
// local development and tests.
package memory

import (
	"context"
	"sync"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/message"
	"saadSocialAPI/internal/post"
	"saadSocialAPI/internal/store"
	"saadSocialAPI/internal/store/live"
)

type Store struct {
	mu sync.RWMutex

	users     map[string]*account.Account
	userOrder []string

	posts    map[string]*post.Post
	postSeq  map[string]int64
	messages map[string]*message.Message
	msgOrder []string
	seq      int64

	hub *live.Hub
}

func New() *Store {
	return &Store{
		users:    make(map[string]*account.Account),
		posts:    make(map[string]*post.Post),
		postSeq:  make(map[string]int64),
		messages: make(map[string]*message.Message),
		hub:      live.NewHub(),
	}
}

func (s *Store) Users() store.Users       { return &users{s} }
func (s *Store) Posts() store.Posts       { return &posts{s} }
func (s *Store) Messages() store.Messages { return &messages{s} }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Close stops every listener still registered.
func (s *Store) Close() error {
	s.hub.Close()
	return nil
}

// listenerCount is the number of live listeners not yet released.
func (s *Store) listenerCount() int {
	return s.hub.Count()
}

func (s *Store) listen(ctx context.Context, collection string, eval func() (any, bool), deliver func(any)) store.Unsubscribe {
	return s.hub.Listen(ctx, collection, eval, deliver)
}

func (s *Store) notify(collection string) {
	s.hub.Notify(collection)
}
