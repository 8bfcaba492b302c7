// Package firestore binds the store collections to Cloud Firestore through
// the Firebase Admin SDK.
package firestore

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"saadSocialAPI/internal/logger"
	"saadSocialAPI/internal/store"
)

type Backend struct {
	client *firestore.Client
}

func New(ctx context.Context, app *firebase.App) (*Backend, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error getting firestore client")
	}
	return &Backend{client: client}, nil
}

func NewWithClient(client *firestore.Client) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Users() store.Users       { return &users{b.client.Collection(store.CollectionUsers)} }
func (b *Backend) Posts() store.Posts       { return &posts{b.client.Collection(store.CollectionPosts)} }
func (b *Backend) Messages() store.Messages { return &messages{b.client, b.client.Collection(store.CollectionMessages)} }

// Ping reads a single user document id; it fails only if the service is
// unreachable or credentials are rejected.
func (b *Backend) Ping(ctx context.Context) error {
	it := b.client.Collection(store.CollectionUsers).Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && err != iterator.Done {
		return errors.Wrap(err, "firestore ping")
	}
	return nil
}

func (b *Backend) Close() error {
	return b.client.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled || err == iterator.Done
}

// listen runs a query listener on its own goroutine until the returned
// disposer is called or ctx ends.
func listen(ctx context.Context, q firestore.Query, name string, deliver func([]*firestore.DocumentSnapshot)) store.Unsubscribe {
	lctx, cancel := context.WithCancel(ctx)
	it := q.Snapshots(lctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if !isCanceled(err) {
					logger.L().Warn("Firestore listener stopped", zap.String("listener", name), zap.Error(err))
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.L().Warn("Firestore listener: failed to read snapshot", zap.String("listener", name), zap.Error(err))
				continue
			}
			deliver(docs)
		}
	}()
	return store.Unsubscribe(sync.OnceFunc(cancel))
}
