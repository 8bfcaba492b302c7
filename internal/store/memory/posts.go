package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"saadSocialAPI/internal/post"
	"saadSocialAPI/internal/store"
)

type posts struct{ s *Store }

func (p *posts) Create(ctx context.Context, in *post.Post) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := in.Clone()
	c.ID = uuid.NewString()
	p.s.mu.Lock()
	p.s.seq++
	p.s.posts[c.ID] = c
	p.s.postSeq[c.ID] = p.s.seq
	p.s.mu.Unlock()
	p.s.notify(store.CollectionPosts)
	return c.ID, nil
}

func (p *posts) Get(ctx context.Context, id string) (*post.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	found, ok := p.s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return found.Clone(), nil
}

func (p *posts) SetReactions(ctx context.Context, id string, r post.Reactions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.s.mu.Lock()
	found, ok := p.s.posts[id]
	if !ok {
		p.s.mu.Unlock()
		return fmt.Errorf("set reactions on %s: %w", id, store.ErrNotFound)
	}
	found.Reactions = post.Reactions{Like: slices.Clone(r.Like), Love: slices.Clone(r.Love), Haha: slices.Clone(r.Haha)}
	p.s.mu.Unlock()
	p.s.notify(store.CollectionPosts)
	return nil
}

func (p *posts) AppendComment(ctx context.Context, id string, c post.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.s.mu.Lock()
	found, ok := p.s.posts[id]
	if !ok {
		p.s.mu.Unlock()
		return fmt.Errorf("append comment on %s: %w", id, store.ErrNotFound)
	}
	// add-to-collection semantics: an identical element is not added twice
	if !slices.Contains(found.Comments, c) {
		found.Comments = append(found.Comments, c)
	}
	p.s.mu.Unlock()
	p.s.notify(store.CollectionPosts)
	return nil
}

func (p *posts) WatchRecent(ctx context.Context, limit int, fn func([]*post.Post)) (store.Unsubscribe, error) {
	eval := func() (any, bool) {
		p.s.mu.RLock()
		defer p.s.mu.RUnlock()
		all := make([]*post.Post, 0, len(p.s.posts))
		for _, v := range p.s.posts {
			all = append(all, v)
		}
		slices.SortFunc(all, func(a, b *post.Post) int {
			if a.Timestamp != b.Timestamp {
				if a.Timestamp > b.Timestamp {
					return -1
				}
				return 1
			}
			sa, sb := p.s.postSeq[a.ID], p.s.postSeq[b.ID]
			if sa > sb {
				return -1
			}
			if sa < sb {
				return 1
			}
			return 0
		})
		if len(all) > limit {
			all = all[:limit]
		}
		out := make([]*post.Post, len(all))
		for i, v := range all {
			out[i] = v.Clone()
		}
		return out, true
	}
	return p.s.listen(ctx, store.CollectionPosts, eval, func(v any) { fn(v.([]*post.Post)) }), nil
}
