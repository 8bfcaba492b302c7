package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"saadSocialAPI/internal/post"
	"saadSocialAPI/internal/store"
)

const postColumns = `id, author_id, author_name, author_avatar, text, image, timestamp, reactions, comments`

type posts struct{ b *Backend }

func scanPost(row pgx.Row) (*post.Post, error) {
	var p post.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.AuthorAvatar, &p.Text, &p.Image, &p.Timestamp,
		&p.Reactions, &p.Comments)
	if err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

func (p *posts) Create(ctx context.Context, in *post.Post) (string, error) {
	c := in.Clone()
	c.ID = uuid.NewString()
	query := `
	INSERT INTO posts (` + postColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := p.b.pool.Exec(ctx, query, c.ID, c.AuthorID, c.AuthorName, c.AuthorAvatar, c.Text, c.Image,
		c.Timestamp, c.Reactions, c.Comments)
	if err != nil {
		return "", errors.Wrap(err, "create post")
	}
	return c.ID, nil
}

func (p *posts) Get(ctx context.Context, id string) (*post.Post, error) {
	found, err := scanPost(p.b.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get post %s", id)
	}
	return found, nil
}

func (p *posts) SetReactions(ctx context.Context, id string, r post.Reactions) error {
	tag, err := p.b.pool.Exec(ctx, `UPDATE posts SET reactions = $2 WHERE id = $1`, id, r)
	if err != nil {
		return errors.Wrapf(err, "set reactions on %s", id)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(store.ErrNotFound, "set reactions on %s", id)
	}
	return nil
}

// AppendComment skips the append when an identical element is already in
// the array.
func (p *posts) AppendComment(ctx context.Context, id string, c post.Comment) error {
	query := `
	UPDATE posts
	SET comments = CASE
		WHEN comments @> jsonb_build_array($2::jsonb) THEN comments
		ELSE comments || jsonb_build_array($2::jsonb)
	END
	WHERE id = $1
	`
	tag, err := p.b.pool.Exec(ctx, query, id, c)
	if err != nil {
		return errors.Wrapf(err, "append comment on %s", id)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(store.ErrNotFound, "append comment on %s", id)
	}
	return nil
}

func (p *posts) WatchRecent(ctx context.Context, limit int, fn func([]*post.Post)) (store.Unsubscribe, error) {
	query := func(ctx context.Context) (any, error) {
		rows, err := p.b.pool.Query(ctx,
			`SELECT `+postColumns+` FROM posts ORDER BY timestamp DESC, seq DESC LIMIT $1`, limit)
		if err != nil {
			return nil, errors.Wrap(err, "recent posts")
		}
		return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*post.Post, error) {
			return scanPost(row)
		})
	}
	return p.b.watch(ctx, store.CollectionPosts, "posts:recent", query, func(v any) { fn(v.([]*post.Post)) }), nil
}
