package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/apperr"
)

func loadPair(t *testing.T, svc *DataService, a, b string) (*account.Account, *account.Account) {
	t.Helper()
	ctx := context.Background()
	accA, err := svc.GetUser(ctx, a)
	require.NoError(t, err)
	accB, err := svc.GetUser(ctx, b)
	require.NoError(t, err)
	return accA, accB
}

func TestSendThenAccept(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()
	seedAccount(t, backend, "alice", "Alice", "+1000")
	seedAccount(t, backend, "bob", "Bob", "+2000")

	require.NoError(t, svc.SendFriendRequest(ctx, "alice", "bob"))
	alice, bob := loadPair(t, svc, "alice", "bob")
	assert.Equal(t, account.Outgoing, alice.RelationTo("bob"))
	assert.Equal(t, account.Incoming, bob.RelationTo("alice"))

	require.NoError(t, svc.AcceptFriendRequest(ctx, "bob", "alice"))
	alice, bob = loadPair(t, svc, "alice", "bob")
	assert.Contains(t, alice.Friends, "bob")
	assert.Contains(t, bob.Friends, "alice")
	assert.NotContains(t, alice.SentRequests, "bob")
	assert.NotContains(t, bob.ReceivedRequests, "alice")
}

func TestSendThenReject(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()
	seedAccount(t, backend, "alice", "Alice", "+1000")
	seedAccount(t, backend, "bob", "Bob", "+2000")

	require.NoError(t, svc.SendFriendRequest(ctx, "alice", "bob"))
	require.NoError(t, svc.RejectFriendRequest(ctx, "bob", "alice"))

	alice, bob := loadPair(t, svc, "alice", "bob")
	for _, acc := range []*account.Account{alice, bob} {
		assert.Empty(t, acc.Friends)
		assert.Empty(t, acc.SentRequests)
		assert.Empty(t, acc.ReceivedRequests)
	}
	assert.Equal(t, account.Unrelated, alice.RelationTo("bob"))
}

func TestIllegalTransitions(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()
	seedAccount(t, backend, "alice", "Alice", "+1000")
	seedAccount(t, backend, "bob", "Bob", "+2000")

	err := svc.AcceptFriendRequest(ctx, "bob", "alice")
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "accept needs a pending request")

	require.NoError(t, svc.SendFriendRequest(ctx, "alice", "bob"))
	err = svc.SendFriendRequest(ctx, "alice", "bob")
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "send is only legal from unrelated")
	err = svc.SendFriendRequest(ctx, "bob", "alice")
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "counter request while pending")

	require.NoError(t, svc.AcceptFriendRequest(ctx, "bob", "alice"))
	err = svc.RejectFriendRequest(ctx, "bob", "alice")
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "friends is terminal")
}

func TestFriendRequestToSelfOrMissingAccount(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()
	seedAccount(t, backend, "alice", "Alice", "+1000")

	err := svc.SendFriendRequest(ctx, "alice", "alice")
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))

	err = svc.SendFriendRequest(ctx, "alice", "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	alice, err := svc.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, alice.SentRequests)
}

func TestRelationsLabels(t *testing.T) {
	viewer := account.New("alice", "Alice", "a@x.com", "+1000")
	viewer.Friends = []string{"bob"}
	viewer.SentRequests = []string{"carol"}
	results := []*account.Account{
		account.New("bob", "Bob", "b@x.com", "+2000"),
		account.New("carol", "Carol", "c@x.com", "+3000"),
		account.New("dan", "Dan", "d@x.com", "+4000"),
	}

	got := Relations(viewer, results)
	require.Len(t, got, 3)
	assert.Equal(t, "Friends", got[0].Label)
	assert.Equal(t, "Sent", got[1].Label)
	assert.Equal(t, account.Unrelated, got[2].State)
}
