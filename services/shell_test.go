package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTab(t *testing.T) {
	tab, err := ParseTab("ai-assistant")
	require.NoError(t, err)
	assert.Equal(t, TabAIAssistant, tab)

	_, err = ParseTab("games")
	assert.Error(t, err)
}

func TestShellResolvesProfilesAndUnread(t *testing.T) {
	svc, backend := newTestService(t)
	svc.now = steppingClock()
	ctx := context.Background()
	alice := seedAccount(t, backend, "alice", "Alice", "+1000")
	seedAccount(t, backend, "bob", "Bob", "+2000")
	seedAccount(t, backend, "carol", "Carol", "+3000")
	alice.Friends = []string{"bob", "ghost"}
	alice.ReceivedRequests = []string{"carol"}

	for range 2 {
		_, err := svc.SendMessage(ctx, "bob", "alice", ptr("ping"), nil, nil)
		require.NoError(t, err)
	}

	var states recorder[ShellState]
	s := NewShell(ctx, svc, states.add)
	require.NoError(t, s.Start("alice"))
	s.SetAccount(alice)

	require.Eventually(t, func() bool {
		st := s.Snapshot()
		return len(st.Friends) == 1 && len(st.Requests) == 1 && st.TotalUnread == 2
	}, time.Second, 5*time.Millisecond)

	st := s.Snapshot()
	assert.Equal(t, "bob", st.Friends[0].ID)
	assert.Equal(t, "carol", st.Requests[0].ID)
	assert.Equal(t, map[string]int{"bob": 2}, st.Unread)

	require.NoError(t, svc.MarkMessagesAsRead(ctx, "alice", "bob"))
	assert.Eventually(t, func() bool { return s.Snapshot().TotalUnread == 0 }, time.Second, 5*time.Millisecond)

	s.Close()
	assert.Equal(t, int64(0), svc.ActiveListeners())
}

func TestShellSkipsUnchangedSets(t *testing.T) {
	svc, backend := newTestService(t)
	alice := seedAccount(t, backend, "alice", "Alice", "+1000")

	var states recorder[ShellState]
	s := NewShell(context.Background(), svc, states.add)
	defer s.Close()

	alice.Friends = []string{}
	s.SetAccount(alice)
	s.SetAccount(alice.Clone())
	assert.Equal(t, 0, states.len())
}

func TestShellTabsAndSelection(t *testing.T) {
	svc, _ := newTestService(t)
	s := NewShell(context.Background(), svc, nil)
	defer s.Close()

	assert.Equal(t, TabProfile, s.Snapshot().Tab)

	s.SelectFriend("bob")
	st := s.Snapshot()
	assert.Equal(t, TabChats, st.Tab)
	assert.Equal(t, "bob", st.SelectedFriend)

	s.SetTab(TabChats)
	assert.Equal(t, "bob", s.Snapshot().SelectedFriend)

	s.SetTab(TabCommunity)
	st = s.Snapshot()
	assert.Equal(t, TabCommunity, st.Tab)
	assert.Empty(t, st.SelectedFriend)
}
