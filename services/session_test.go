package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saadSocialAPI/internal/account"
)

func registerAlice(t *testing.T, svc *DataService) *account.Account {
	t.Helper()
	acc, _, err := svc.Register(context.Background(), account.RegisterRequest{Name: "Alice", Email: "a@x.com", Phone: "+1000", Password: "secret1"})
	require.NoError(t, err)
	return acc
}

func TestSessionFollowsAccountAndSignOut(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := registerAlice(t, svc)

	var seen recorder[*account.Account]
	c := NewSessionController(ctx, svc, func(_ ViewState, acc *account.Account) { seen.add(acc) })
	assert.Equal(t, ViewLoading, c.State())

	require.NoError(t, c.Start(alice.ID))
	assert.Equal(t, ViewAuthenticated, c.State())
	assert.Equal(t, alice.ID, c.Account().ID)
	assert.Equal(t, int64(2), svc.ActiveListeners())

	bio := "updated through the listener"
	require.NoError(t, svc.UpdateProfile(ctx, alice.ID, account.ProfileUpdate{Bio: &bio}))
	assert.Eventually(t, func() bool {
		acc := c.Account()
		return acc != nil && acc.Bio == bio
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, svc.Logout(ctx, alice.ID))
	assert.Equal(t, ViewUnauthenticated, c.State())
	assert.Nil(t, c.Account())
	assert.Equal(t, int64(1), svc.ActiveListeners(), "account listener released on sign out")

	c.Close()
	c.Close()
	assert.Equal(t, int64(0), svc.ActiveListeners())
	assert.False(t, c.Degraded())
}

func TestSessionRecoversFromCallbackPanic(t *testing.T) {
	svc, _ := newTestService(t)
	alice := registerAlice(t, svc)

	var calls atomic.Int64
	c := NewSessionController(context.Background(), svc, func(ViewState, *account.Account) {
		if calls.Add(1) == 1 {
			panic("render failed")
		}
	})
	defer c.Close()

	require.NoError(t, c.Start(alice.ID))
	assert.True(t, c.Degraded())
	assert.Equal(t, ViewAuthenticated, c.State())
}

func TestSessionStartForUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t)
	c := NewSessionController(context.Background(), svc, nil)
	defer c.Close()

	require.NoError(t, c.Start("ghost"))
	assert.Equal(t, ViewUnauthenticated, c.State())
}
