// Package postgres stores the collections in PostgreSQL through pgx. Live
// listeners are driven by LISTEN/NOTIFY: a trigger on every table publishes
// the table name, and one dedicated connection wakes the listeners for it.
package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"saadSocialAPI/internal/logger"
	"saadSocialAPI/internal/store"
	"saadSocialAPI/internal/store/live"
)

const (
	changeChannel  = "saad_changes"
	reconnectDelay = 2 * time.Second
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		email             TEXT NOT NULL,
		phone             TEXT NOT NULL,
		show_phone        BOOLEAN NOT NULL DEFAULT TRUE,
		avatar            TEXT NOT NULL DEFAULT '',
		bio               TEXT NOT NULL DEFAULT '',
		language          TEXT NOT NULL DEFAULT 'en',
		friends           TEXT[] NOT NULL DEFAULT '{}',
		sent_requests     TEXT[] NOT NULL DEFAULT '{}',
		received_requests TEXT[] NOT NULL DEFAULT '{}',
		seq               BIGSERIAL
	)`,
	`CREATE INDEX IF NOT EXISTS users_phone_idx ON users (phone)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id            TEXT PRIMARY KEY,
		author_id     TEXT NOT NULL,
		author_name   TEXT NOT NULL,
		author_avatar TEXT NOT NULL DEFAULT '',
		text          TEXT NOT NULL DEFAULT '',
		image         TEXT,
		timestamp     BIGINT NOT NULL,
		reactions     JSONB NOT NULL DEFAULT '{"like":[],"love":[],"haha":[]}',
		comments      JSONB NOT NULL DEFAULT '[]',
		seq           BIGSERIAL
	)`,
	`CREATE INDEX IF NOT EXISTS posts_timestamp_idx ON posts (timestamp DESC, seq DESC)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id          TEXT PRIMARY KEY,
		sender_id   TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		text        TEXT,
		image       TEXT,
		audio       TEXT,
		timestamp   BIGINT NOT NULL,
		read        BOOLEAN NOT NULL DEFAULT FALSE,
		seq         BIGSERIAL
	)`,
	`CREATE INDEX IF NOT EXISTS messages_sender_idx ON messages (sender_id)`,
	`CREATE INDEX IF NOT EXISTS messages_unread_idx ON messages (receiver_id) WHERE NOT read`,
	`CREATE OR REPLACE FUNCTION saad_notify_change() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('` + changeChannel + `', TG_TABLE_NAME);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS users_notify ON users`,
	`CREATE TRIGGER users_notify AFTER INSERT OR UPDATE OR DELETE ON users
		FOR EACH STATEMENT EXECUTE FUNCTION saad_notify_change()`,
	`DROP TRIGGER IF EXISTS posts_notify ON posts`,
	`CREATE TRIGGER posts_notify AFTER INSERT OR UPDATE OR DELETE ON posts
		FOR EACH STATEMENT EXECUTE FUNCTION saad_notify_change()`,
	`DROP TRIGGER IF EXISTS messages_notify ON messages`,
	`CREATE TRIGGER messages_notify AFTER INSERT OR UPDATE OR DELETE ON messages
		FOR EACH STATEMENT EXECUTE FUNCTION saad_notify_change()`,
}

type Backend struct {
	pool *pgxpool.Pool
	hub  *live.Hub

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New takes ownership of pool and starts the change listener. Migrate must
// have run once against the database.
func New(ctx context.Context, pool *pgxpool.Pool) *Backend {
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b := &Backend{pool: pool, hub: live.NewHub(), cancel: cancel}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.listenForChanges(lctx)
	}()
	return b
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate schema")
		}
	}
	return nil
}

func (b *Backend) Users() store.Users       { return &users{b} }
func (b *Backend) Posts() store.Posts       { return &posts{b} }
func (b *Backend) Messages() store.Messages { return &messages{b} }

func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b *Backend) Close() error {
	b.cancel()
	b.wg.Wait()
	b.hub.Close()
	b.pool.Close()
	return nil
}

func (b *Backend) listenForChanges(ctx context.Context) {
	for {
		err := b.waitForChanges(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.L().Warn("Postgres change listener disconnected", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
		// events may have been missed while the connection was down
		b.hub.NotifyAll()
	}
}

func (b *Backend) waitForChanges(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire listen connection")
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		return errors.Wrap(err, "listen")
	}
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return errors.Wrap(err, "wait for notification")
		}
		b.hub.Notify(n.Payload)
	}
}

// watch registers a query listener; query errors are logged and skip that
// round of delivery.
func (b *Backend) watch(ctx context.Context, table, name string, query func(context.Context) (any, error), deliver func(any)) store.Unsubscribe {
	eval := func() (any, bool) {
		v, err := query(ctx)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) && ctx.Err() == nil {
				logger.L().Warn("Postgres listener query failed", zap.String("listener", name), zap.Error(err))
			}
			return nil, false
		}
		return v, true
	}
	return b.hub.Listen(ctx, table, eval, deliver)
}
