package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"saadSocialAPI/internal/message"
	"saadSocialAPI/internal/store"
)

type messages struct{ s *Store }

func (m *messages) Create(ctx context.Context, in *message.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := in.Clone()
	c.ID = uuid.NewString()
	m.s.mu.Lock()
	m.s.messages[c.ID] = c
	m.s.msgOrder = append(m.s.msgOrder, c.ID)
	m.s.mu.Unlock()
	m.s.notify(store.CollectionMessages)
	return c.ID, nil
}

func (m *messages) FindUnread(ctx context.Context, receiverID, senderID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var ids []string
	for _, id := range m.s.msgOrder {
		msg := m.s.messages[id]
		if msg.ReceiverID == receiverID && msg.SenderID == senderID && !msg.Read {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// MarkRead validates every id before writing any, so the batch is all or
// nothing.
func (m *messages) MarkRead(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	for _, id := range ids {
		if _, ok := m.s.messages[id]; !ok {
			m.s.mu.Unlock()
			return fmt.Errorf("mark read %s: %w", id, store.ErrNotFound)
		}
	}
	for _, id := range ids {
		m.s.messages[id].Read = true
	}
	m.s.mu.Unlock()
	m.s.notify(store.CollectionMessages)
	return nil
}

func (m *messages) WatchBySenders(ctx context.Context, senders []string, fn func([]*message.Message)) (store.Unsubscribe, error) {
	senders = slices.Clone(senders)
	return m.watch(ctx, func(msg *message.Message) bool {
		return slices.Contains(senders, msg.SenderID)
	}, fn), nil
}

func (m *messages) WatchUnread(ctx context.Context, receiverID string, fn func([]*message.Message)) (store.Unsubscribe, error) {
	return m.watch(ctx, func(msg *message.Message) bool {
		return msg.ReceiverID == receiverID && !msg.Read
	}, fn), nil
}

func (m *messages) watch(ctx context.Context, match func(*message.Message) bool, fn func([]*message.Message)) store.Unsubscribe {
	eval := func() (any, bool) {
		m.s.mu.RLock()
		defer m.s.mu.RUnlock()
		out := []*message.Message{}
		for _, id := range m.s.msgOrder {
			if msg := m.s.messages[id]; match(msg) {
				out = append(out, msg.Clone())
			}
		}
		return out, true
	}
	return m.s.listen(ctx, store.CollectionMessages, eval, func(v any) { fn(v.([]*message.Message)) })
}
