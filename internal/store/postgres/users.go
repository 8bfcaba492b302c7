package postgres

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/store"
)

const userColumns = `id, name, email, phone, show_phone, avatar, bio, language, friends, sent_requests, received_requests`

// profileColumns maps stored field names to columns.
var profileColumns = map[string]string{
	"name":      "name",
	"avatar":    "avatar",
	"bio":       "bio",
	"showPhone": "show_phone",
	"language":  "language",
}

type users struct{ b *Backend }

func scanAccount(row pgx.Row) (*account.Account, error) {
	var a account.Account
	var lang string
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.ShowPhone, &a.Avatar, &a.Bio, &lang,
		&a.Friends, &a.SentRequests, &a.ReceivedRequests)
	if err != nil {
		return nil, err
	}
	a.Language = account.Language(lang)
	a.Normalize()
	return &a, nil
}

func (u *users) Get(ctx context.Context, id string) (*account.Account, error) {
	return getAccount(ctx, u.b.pool, id)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getAccount(ctx context.Context, q querier, id string) (*account.Account, error) {
	a, err := scanAccount(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get user %s", id)
	}
	return a, nil
}

func (u *users) Create(ctx context.Context, in *account.Account) error {
	a := in.Clone()
	a.Normalize()
	query := `
	INSERT INTO users (` + userColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone,
		show_phone = EXCLUDED.show_phone, avatar = EXCLUDED.avatar, bio = EXCLUDED.bio,
		language = EXCLUDED.language, friends = EXCLUDED.friends,
		sent_requests = EXCLUDED.sent_requests, received_requests = EXCLUDED.received_requests
	`
	_, err := u.b.pool.Exec(ctx, query, a.ID, a.Name, a.Email, a.Phone, a.ShowPhone, a.Avatar, a.Bio,
		string(a.Language), a.Friends, a.SentRequests, a.ReceivedRequests)
	if err != nil {
		return errors.Wrapf(err, "create user %s", a.ID)
	}
	return nil
}

func (u *users) Update(ctx context.Context, id string, upd account.ProfileUpdate) error {
	fields := upd.Fields()
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	sets := make([]string, 0, len(keys))
	args := []any{id}
	for _, k := range keys {
		args = append(args, fields[k])
		sets = append(sets, fmt.Sprintf("%s = $%d", profileColumns[k], len(args)))
	}
	tag, err := u.b.pool.Exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return errors.Wrapf(err, "update user %s", id)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(store.ErrNotFound, "update user %s", id)
	}
	return nil
}

// ApplyRelation locks the row, applies the set primitives and writes the
// three sets back in one statement.
func (u *users) ApplyRelation(ctx context.Context, id string, change account.RelationChange) error {
	if len(change) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, u.b.pool, func(tx pgx.Tx) error {
		a, err := scanAccount(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errors.Wrapf(store.ErrNotFound, "apply relation on %s", id)
			}
			return errors.Wrapf(err, "apply relation on %s", id)
		}
		change.Apply(a)
		_, err = tx.Exec(ctx,
			`UPDATE users SET friends = $2, sent_requests = $3, received_requests = $4 WHERE id = $1`,
			id, a.Friends, a.SentRequests, a.ReceivedRequests)
		if err != nil {
			return errors.Wrapf(err, "apply relation on %s", id)
		}
		return nil
	})
}

func (u *users) FindByPhone(ctx context.Context, phone string) ([]*account.Account, error) {
	rows, err := u.b.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1 ORDER BY seq`, phone)
	if err != nil {
		return nil, errors.Wrap(err, "find user by phone")
	}
	return collectAccounts(rows)
}

func (u *users) List(ctx context.Context, limit int) ([]*account.Account, error) {
	rows, err := u.b.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return collectAccounts(rows)
}

func (u *users) Watch(ctx context.Context, id string, fn func(*account.Account)) (store.Unsubscribe, error) {
	query := func(ctx context.Context) (any, error) {
		return getAccount(ctx, u.b.pool, id)
	}
	return u.b.watch(ctx, store.CollectionUsers, "user:"+id, query, func(v any) { fn(v.(*account.Account)) }), nil
}

func collectAccounts(rows pgx.Rows) ([]*account.Account, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*account.Account, error) {
		return scanAccount(row)
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan users")
	}
	return out, nil
}
