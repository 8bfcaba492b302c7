package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/store"
)

type users struct {
	col *firestore.CollectionRef
}

func (u *users) Get(ctx context.Context, id string) (*account.Account, error) {
	snap, err := u.col.Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get user %s", id)
	}
	return decodeAccount(snap)
}

func (u *users) Create(ctx context.Context, a *account.Account) error {
	c := a.Clone()
	c.Normalize()
	if _, err := u.col.Doc(c.ID).Set(ctx, c); err != nil {
		return errors.Wrapf(err, "create user %s", c.ID)
	}
	return nil
}

func (u *users) Update(ctx context.Context, id string, upd account.ProfileUpdate) error {
	fields := upd.Fields()
	if len(fields) == 0 {
		return nil
	}
	updates := make([]firestore.Update, 0, len(fields))
	for path, v := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: v})
	}
	if _, err := u.col.Doc(id).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return errors.Wrapf(store.ErrNotFound, "update user %s", id)
		}
		return errors.Wrapf(err, "update user %s", id)
	}
	return nil
}

// ApplyRelation maps set primitives onto ArrayUnion/ArrayRemove. Ops on the
// same field are grouped so one document write carries the whole change.
func (u *users) ApplyRelation(ctx context.Context, id string, change account.RelationChange) error {
	if len(change) == 0 {
		return nil
	}
	type group struct{ add, remove []interface{} }
	order := []account.SetField{}
	groups := map[account.SetField]*group{}
	for _, op := range change {
		g, ok := groups[op.Field]
		if !ok {
			g = &group{}
			groups[op.Field] = g
			order = append(order, op.Field)
		}
		if op.Add {
			g.add = append(g.add, op.ID)
		} else {
			g.remove = append(g.remove, op.ID)
		}
	}

	var updates []firestore.Update
	for _, field := range order {
		g := groups[field]
		// a field path may appear only once per update
		switch {
		case len(g.add) > 0 && len(g.remove) > 0:
			return errors.Errorf("relation change adds and removes on %s in one write", field)
		case len(g.add) > 0:
			updates = append(updates, firestore.Update{Path: string(field), Value: firestore.ArrayUnion(g.add...)})
		default:
			updates = append(updates, firestore.Update{Path: string(field), Value: firestore.ArrayRemove(g.remove...)})
		}
	}
	if _, err := u.col.Doc(id).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return errors.Wrapf(store.ErrNotFound, "apply relation on %s", id)
		}
		return errors.Wrapf(err, "apply relation on %s", id)
	}
	return nil
}

func (u *users) FindByPhone(ctx context.Context, phone string) ([]*account.Account, error) {
	docs, err := u.col.Where("phone", "==", phone).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "find user by phone")
	}
	return decodeAccounts(docs)
}

func (u *users) List(ctx context.Context, limit int) ([]*account.Account, error) {
	docs, err := u.col.Limit(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return decodeAccounts(docs)
}

func (u *users) Watch(ctx context.Context, id string, fn func(*account.Account)) (store.Unsubscribe, error) {
	q := u.col.Where(firestore.DocumentID, "==", u.col.Doc(id))
	return listen(ctx, q, "user:"+id, func(docs []*firestore.DocumentSnapshot) {
		for _, snap := range docs {
			a, err := decodeAccount(snap)
			if err != nil {
				continue
			}
			fn(a)
		}
	}), nil
}

func decodeAccount(snap *firestore.DocumentSnapshot) (*account.Account, error) {
	var a account.Account
	if err := snap.DataTo(&a); err != nil {
		return nil, errors.Wrapf(err, "decode user %s", snap.Ref.ID)
	}
	if a.ID == "" {
		a.ID = snap.Ref.ID
	}
	a.Normalize()
	return &a, nil
}

func decodeAccounts(docs []*firestore.DocumentSnapshot) ([]*account.Account, error) {
	out := make([]*account.Account, 0, len(docs))
	for _, snap := range docs {
		a, err := decodeAccount(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
