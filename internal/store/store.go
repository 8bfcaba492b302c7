// Package store declares the collections the data-access facade reads and
// writes. Implementations live in the memory, firestore and postgres
// subpackages; none of them adds semantics beyond the primitive each method
// names.
package store

import (
	"context"
	"errors"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/message"
	"saadSocialAPI/internal/post"
)

const (
	CollectionUsers    = "users"
	CollectionPosts    = "posts"
	CollectionMessages = "messages"
)

var ErrNotFound = errors.New("document not found")

// Unsubscribe releases a live listener. It is safe to call more than once.
type Unsubscribe func()

type Users interface {
	Get(ctx context.Context, id string) (*account.Account, error)
	Create(ctx context.Context, a *account.Account) error
	// Update merges only the supplied fields into the stored record.
	Update(ctx context.Context, id string, u account.ProfileUpdate) error
	// ApplyRelation applies set add/remove primitives to one document in a
	// single write.
	ApplyRelation(ctx context.Context, id string, change account.RelationChange) error
	FindByPhone(ctx context.Context, phone string) ([]*account.Account, error)
	// List returns at most limit accounts in the backend's natural order.
	List(ctx context.Context, limit int) ([]*account.Account, error)
	// Watch fires with the account on every remote change. Deletions and
	// missing documents are not delivered.
	Watch(ctx context.Context, id string, fn func(*account.Account)) (Unsubscribe, error)
}

type Posts interface {
	Create(ctx context.Context, p *post.Post) (string, error)
	Get(ctx context.Context, id string) (*post.Post, error)
	// SetReactions overwrites the whole reactions structure.
	SetReactions(ctx context.Context, id string, r post.Reactions) error
	// AppendComment adds c to the comment sequence with an atomic
	// add-to-collection primitive.
	AppendComment(ctx context.Context, id string, c post.Comment) error
	// WatchRecent delivers the limit most recent posts, newest first.
	WatchRecent(ctx context.Context, limit int, fn func([]*post.Post)) (Unsubscribe, error)
}

type Messages interface {
	Create(ctx context.Context, m *message.Message) (string, error)
	// FindUnread returns ids of unread messages from sender to receiver.
	FindUnread(ctx context.Context, receiverID, senderID string) ([]string, error)
	// MarkRead flips read to true for all ids in one atomic batch.
	MarkRead(ctx context.Context, ids []string) error
	// WatchBySenders delivers every message whose sender is in senders.
	WatchBySenders(ctx context.Context, senders []string, fn func([]*message.Message)) (Unsubscribe, error)
	// WatchUnread delivers every unread message addressed to receiverID.
	WatchUnread(ctx context.Context, receiverID string, fn func([]*message.Message)) (Unsubscribe, error)
}

type Backend interface {
	Users() Users
	Posts() Posts
	Messages() Messages
	Ping(ctx context.Context) error
	Close() error
}
