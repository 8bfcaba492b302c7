package firestore

import (
	"context"
	"slices"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"saadSocialAPI/internal/message"
	"saadSocialAPI/internal/store"
)

// maxBatchWrites is the Firestore limit on writes in one batch.
const maxBatchWrites = 500

type messages struct {
	client *firestore.Client
	col    *firestore.CollectionRef
}

func (m *messages) Create(ctx context.Context, in *message.Message) (string, error) {
	ref, _, err := m.col.Add(ctx, in)
	if err != nil {
		return "", errors.Wrap(err, "create message")
	}
	return ref.ID, nil
}

func (m *messages) FindUnread(ctx context.Context, receiverID, senderID string) ([]string, error) {
	docs, err := m.col.
		Where("receiverId", "==", receiverID).
		Where("senderId", "==", senderID).
		Where("read", "==", false).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "find unread messages")
	}
	ids := make([]string, 0, len(docs))
	for _, snap := range docs {
		ids = append(ids, snap.Ref.ID)
	}
	return ids, nil
}

// MarkRead commits one batch. More ids than a batch can carry are rejected
// rather than split, since a split would not be atomic.
func (m *messages) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > maxBatchWrites {
		return errors.Errorf("mark read: %d messages exceed one batch", len(ids))
	}
	batch := m.client.Batch()
	for _, id := range ids {
		batch.Update(m.col.Doc(id), []firestore.Update{{Path: "read", Value: true}})
	}
	if _, err := batch.Commit(ctx); err != nil {
		if isNotFound(err) {
			return errors.Wrap(store.ErrNotFound, "mark read")
		}
		return errors.Wrap(err, "mark read")
	}
	return nil
}

func (m *messages) WatchBySenders(ctx context.Context, senders []string, fn func([]*message.Message)) (store.Unsubscribe, error) {
	in := make([]interface{}, 0, len(senders))
	for _, s := range slices.Compact(slices.Sorted(slices.Values(senders))) {
		in = append(in, s)
	}
	if len(in) == 0 {
		return nil, errors.New("watch by senders: no senders")
	}
	q := m.col.Where("senderId", "in", in)
	return listen(ctx, q, "messages:senders", deliverMessages(fn)), nil
}

func (m *messages) WatchUnread(ctx context.Context, receiverID string, fn func([]*message.Message)) (store.Unsubscribe, error) {
	q := m.col.Where("receiverId", "==", receiverID).Where("read", "==", false)
	return listen(ctx, q, "messages:unread:"+receiverID, deliverMessages(fn)), nil
}

func deliverMessages(fn func([]*message.Message)) func([]*firestore.DocumentSnapshot) {
	return func(docs []*firestore.DocumentSnapshot) {
		out := make([]*message.Message, 0, len(docs))
		for _, snap := range docs {
			var msg message.Message
			if err := snap.DataTo(&msg); err != nil {
				continue
			}
			msg.ID = snap.Ref.ID
			out = append(out, &msg)
		}
		fn(out)
	}
}
