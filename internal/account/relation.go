package account

import (
	"fmt"
	"slices"
)

// Relation is the friend-request state of a pair as seen from one side.
type Relation string

const (
	Unrelated Relation = "unrelated"
	Outgoing  Relation = "outgoing" // this account sent a pending request
	Incoming  Relation = "incoming" // the peer sent a pending request
	Friends   Relation = "friends"
)

// RelationTo reports the state between a and peer. Friendship wins over a
// stale pending entry so a half-applied accept still reads as friends.
func (a *Account) RelationTo(peer string) Relation {
	switch {
	case a.IsFriend(peer):
		return Friends
	case slices.Contains(a.SentRequests, peer):
		return Outgoing
	case slices.Contains(a.ReceivedRequests, peer):
		return Incoming
	default:
		return Unrelated
	}
}

// Label is the discovery button text for the relation.
func (r Relation) Label() string {
	switch r {
	case Friends:
		return "Friends"
	case Outgoing:
		return "Sent"
	case Incoming:
		return "Action Needed"
	default:
		return "Connect"
	}
}

type SetField string

const (
	FieldFriends          SetField = "friends"
	FieldSentRequests     SetField = "sentRequests"
	FieldReceivedRequests SetField = "receivedRequests"
)

type SetOp struct {
	Field SetField
	ID    string
	Add   bool
}

// RelationChange is a group of set add/remove operations applied to a
// single account document in one write.
type RelationChange []SetOp

func (c RelationChange) Apply(a *Account) {
	for _, op := range c {
		set := a.set(op.Field)
		if op.Add {
			if !slices.Contains(*set, op.ID) {
				*set = append(*set, op.ID)
			}
			continue
		}
		*set = slices.DeleteFunc(*set, func(id string) bool { return id == op.ID })
	}
}

func (a *Account) set(field SetField) *[]string {
	switch field {
	case FieldFriends:
		return &a.Friends
	case FieldSentRequests:
		return &a.SentRequests
	case FieldReceivedRequests:
		return &a.ReceivedRequests
	}
	panic(fmt.Sprintf("account: unknown set field %q", field))
}

type Transition string

const (
	TransitionSend   Transition = "send"
	TransitionAccept Transition = "accept"
	TransitionReject Transition = "reject"
)

// Allowed reports whether t may start from state r, where r is the
// relation seen by the account performing the transition.
func (t Transition) Allowed(r Relation) bool {
	switch t {
	case TransitionSend:
		return r == Unrelated
	case TransitionAccept, TransitionReject:
		return r == Incoming
	}
	return false
}

// Plan returns the writes for actor and target. For send the actor is the
// requester; for accept and reject the actor is the one who received it.
func (t Transition) Plan(actor, target string) (forActor, forTarget RelationChange) {
	switch t {
	case TransitionSend:
		return RelationChange{{Field: FieldSentRequests, ID: target, Add: true}},
			RelationChange{{Field: FieldReceivedRequests, ID: actor, Add: true}}
	case TransitionAccept:
		return RelationChange{
				{Field: FieldReceivedRequests, ID: target},
				{Field: FieldFriends, ID: target, Add: true},
			}, RelationChange{
				{Field: FieldSentRequests, ID: actor},
				{Field: FieldFriends, ID: actor, Add: true},
			}
	case TransitionReject:
		return RelationChange{{Field: FieldReceivedRequests, ID: target}},
			RelationChange{{Field: FieldSentRequests, ID: actor}}
	}
	return nil, nil
}
