package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"saadSocialAPI/internal/post"
	"saadSocialAPI/internal/store"
)

type posts struct {
	col *firestore.CollectionRef
}

func (p *posts) Create(ctx context.Context, in *post.Post) (string, error) {
	ref, _, err := p.col.Add(ctx, in)
	if err != nil {
		return "", errors.Wrap(err, "create post")
	}
	return ref.ID, nil
}

func (p *posts) Get(ctx context.Context, id string) (*post.Post, error) {
	snap, err := p.col.Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get post %s", id)
	}
	return decodePost(snap)
}

func (p *posts) SetReactions(ctx context.Context, id string, r post.Reactions) error {
	_, err := p.col.Doc(id).Update(ctx, []firestore.Update{{Path: "reactions", Value: r}})
	if err != nil {
		if isNotFound(err) {
			return errors.Wrapf(store.ErrNotFound, "set reactions on %s", id)
		}
		return errors.Wrapf(err, "set reactions on %s", id)
	}
	return nil
}

func (p *posts) AppendComment(ctx context.Context, id string, c post.Comment) error {
	_, err := p.col.Doc(id).Update(ctx, []firestore.Update{{Path: "comments", Value: firestore.ArrayUnion(c)}})
	if err != nil {
		if isNotFound(err) {
			return errors.Wrapf(store.ErrNotFound, "append comment on %s", id)
		}
		return errors.Wrapf(err, "append comment on %s", id)
	}
	return nil
}

func (p *posts) WatchRecent(ctx context.Context, limit int, fn func([]*post.Post)) (store.Unsubscribe, error) {
	q := p.col.OrderBy("timestamp", firestore.Desc).Limit(limit)
	return listen(ctx, q, "posts:recent", func(docs []*firestore.DocumentSnapshot) {
		out := make([]*post.Post, 0, len(docs))
		for _, snap := range docs {
			pp, err := decodePost(snap)
			if err != nil {
				continue
			}
			out = append(out, pp)
		}
		fn(out)
	}), nil
}

func decodePost(snap *firestore.DocumentSnapshot) (*post.Post, error) {
	var p post.Post
	if err := snap.DataTo(&p); err != nil {
		return nil, errors.Wrapf(err, "decode post %s", snap.Ref.ID)
	}
	p.ID = snap.Ref.ID
	p.Normalize()
	return &p, nil
}
