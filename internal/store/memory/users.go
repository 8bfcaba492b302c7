package memory

import (
	"context"
	"fmt"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/store"
)

type users struct{ s *Store }

func (u *users) Get(ctx context.Context, id string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	a, ok := u.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a.Clone(), nil
}

func (u *users) Create(ctx context.Context, a *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.s.mu.Lock()
	if _, exists := u.s.users[a.ID]; !exists {
		u.s.userOrder = append(u.s.userOrder, a.ID)
	}
	c := a.Clone()
	c.Normalize()
	u.s.users[a.ID] = c
	u.s.mu.Unlock()
	u.s.notify(store.CollectionUsers)
	return nil
}

func (u *users) Update(ctx context.Context, id string, upd account.ProfileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.s.mu.Lock()
	a, ok := u.s.users[id]
	if !ok {
		u.s.mu.Unlock()
		return fmt.Errorf("update user %s: %w", id, store.ErrNotFound)
	}
	upd.Apply(a)
	u.s.mu.Unlock()
	u.s.notify(store.CollectionUsers)
	return nil
}

func (u *users) ApplyRelation(ctx context.Context, id string, change account.RelationChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.s.mu.Lock()
	a, ok := u.s.users[id]
	if !ok {
		u.s.mu.Unlock()
		return fmt.Errorf("apply relation on %s: %w", id, store.ErrNotFound)
	}
	change.Apply(a)
	u.s.mu.Unlock()
	u.s.notify(store.CollectionUsers)
	return nil
}

func (u *users) FindByPhone(ctx context.Context, phone string) ([]*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	var out []*account.Account
	for _, id := range u.s.userOrder {
		if a := u.s.users[id]; a.Phone == phone {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (u *users) List(ctx context.Context, limit int) ([]*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	out := make([]*account.Account, 0, min(limit, len(u.s.userOrder)))
	for _, id := range u.s.userOrder {
		if len(out) == limit {
			break
		}
		out = append(out, u.s.users[id].Clone())
	}
	return out, nil
}

func (u *users) Watch(ctx context.Context, id string, fn func(*account.Account)) (store.Unsubscribe, error) {
	eval := func() (any, bool) {
		u.s.mu.RLock()
		defer u.s.mu.RUnlock()
		a, ok := u.s.users[id]
		if !ok {
			return nil, false
		}
		return a.Clone(), true
	}
	return u.s.listen(ctx, store.CollectionUsers, eval, func(v any) { fn(v.(*account.Account)) }), nil
}
