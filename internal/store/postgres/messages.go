package postgres

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"saadSocialAPI/internal/message"
	"saadSocialAPI/internal/store"
)

const messageColumns = `id, sender_id, receiver_id, text, image, audio, timestamp, read`

type messages struct{ b *Backend }

func scanMessage(row pgx.CollectableRow) (*message.Message, error) {
	var m message.Message
	if err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Image, &m.Audio, &m.Timestamp, &m.Read); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *messages) Create(ctx context.Context, in *message.Message) (string, error) {
	id := uuid.NewString()
	query := `
	INSERT INTO messages (` + messageColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := m.b.pool.Exec(ctx, query, id, in.SenderID, in.ReceiverID, in.Text, in.Image, in.Audio, in.Timestamp, in.Read)
	if err != nil {
		return "", errors.Wrap(err, "create message")
	}
	return id, nil
}

func (m *messages) FindUnread(ctx context.Context, receiverID, senderID string) ([]string, error) {
	rows, err := m.b.pool.Query(ctx,
		`SELECT id FROM messages WHERE receiver_id = $1 AND sender_id = $2 AND NOT read ORDER BY seq`,
		receiverID, senderID)
	if err != nil {
		return nil, errors.Wrap(err, "find unread messages")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "scan unread ids")
	}
	return ids, nil
}

// MarkRead rolls back unless every id matched a row.
func (m *messages) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	unique := slices.Compact(slices.Sorted(slices.Values(ids)))
	return pgx.BeginFunc(ctx, m.b.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE messages SET read = TRUE WHERE id = ANY($1)`, unique)
		if err != nil {
			return errors.Wrap(err, "mark read")
		}
		if tag.RowsAffected() != int64(len(unique)) {
			return errors.Wrap(store.ErrNotFound, "mark read")
		}
		return nil
	})
}

func (m *messages) WatchBySenders(ctx context.Context, senders []string, fn func([]*message.Message)) (store.Unsubscribe, error) {
	senders = slices.Clone(senders)
	query := func(ctx context.Context) (any, error) {
		return m.query(ctx, `SELECT `+messageColumns+` FROM messages WHERE sender_id = ANY($1) ORDER BY seq`, senders)
	}
	return m.b.watch(ctx, store.CollectionMessages, "messages:senders", query, func(v any) { fn(v.([]*message.Message)) }), nil
}

func (m *messages) WatchUnread(ctx context.Context, receiverID string, fn func([]*message.Message)) (store.Unsubscribe, error) {
	query := func(ctx context.Context) (any, error) {
		return m.query(ctx, `SELECT `+messageColumns+` FROM messages WHERE receiver_id = $1 AND NOT read ORDER BY seq`, receiverID)
	}
	return m.b.watch(ctx, store.CollectionMessages, "messages:unread:"+receiverID, query, func(v any) { fn(v.([]*message.Message)) }), nil
}

func (m *messages) query(ctx context.Context, sql string, args ...any) ([]*message.Message, error) {
	rows, err := m.b.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query messages")
	}
	out, err := pgx.CollectRows(rows, scanMessage)
	if err != nil {
		return nil, errors.Wrap(err, "scan messages")
	}
	return out, nil
}
