package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saadSocialAPI/internal/apperr"
	"saadSocialAPI/internal/message"
	"saadSocialAPI/internal/store"
)

// countingBackend counts MarkRead batches on the wrapped backend.
type countingBackend struct {
	store.Backend
	msgs *countingMessages
}

func (b countingBackend) Messages() store.Messages { return b.msgs }

type countingMessages struct {
	store.Messages
	markReads atomic.Int64
}

func (m *countingMessages) MarkRead(ctx context.Context, ids []string) error {
	m.markReads.Add(1)
	return m.Messages.MarkRead(ctx, ids)
}

func TestSendMessageNeedsContent(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SendMessage(context.Background(), "alice", "bob", ptr("  "), ptr(""), nil)
	assert.True(t, apperr.Is(err, apperr.KindEmptyContent))

	id, err := svc.SendMessage(context.Background(), "alice", "bob", nil, nil, ptr("data:audio/webm;base64,AAAA"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestSubscribeToMessagesBothDirectionsInOrder(t *testing.T) {
	svc, _ := newTestService(t)
	svc.now = steppingClock()
	ctx := context.Background()

	send := func(from, to, text string) {
		_, err := svc.SendMessage(ctx, from, to, ptr(text), nil, nil)
		require.NoError(t, err)
	}
	send("alice", "bob", "one")
	send("bob", "alice", "two")
	send("alice", "carol", "elsewhere")
	send("carol", "bob", "elsewhere too")
	send("alice", "bob", "three")

	var thread recorder[[]*message.Message]
	unsub, err := svc.SubscribeToMessages(ctx, "bob", "alice", thread.add)
	require.NoError(t, err)
	defer unsub()

	require.Eventually(t, func() bool { return thread.len() > 0 }, time.Second, 5*time.Millisecond)
	got, _ := thread.last()
	texts := make([]string, 0, len(got))
	for i, m := range got {
		texts = append(texts, *m.Text)
		assert.True(t, m.Between("alice", "bob"))
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].Timestamp, m.Timestamp)
		}
	}
	assert.Equal(t, []string{"one", "two", "three"}, texts)

	send("bob", "alice", "four")
	assert.Eventually(t, func() bool {
		got, _ := thread.last()
		return len(got) == 4 && *got[3].Text == "four"
	}, time.Second, 5*time.Millisecond)
}

func TestConversationReadsOnce(t *testing.T) {
	svc, _ := newTestService(t)
	svc.now = steppingClock()
	ctx := context.Background()
	_, err := svc.SendMessage(ctx, "alice", "bob", ptr("hi"), nil, nil)
	require.NoError(t, err)

	msgs, err := svc.Conversation(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(0), svc.ActiveListeners())
}

func TestMarkMessagesAsReadIsIdempotent(t *testing.T) {
	base, mem := newTestService(t)
	counting := &countingMessages{Messages: mem.Messages()}
	svc := NewDataService(countingBackend{Backend: mem, msgs: counting}, base.auth)
	svc.now = steppingClock()
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		_, err := svc.SendMessage(ctx, "alice", "bob", ptr(text), nil, nil)
		require.NoError(t, err)
	}
	_, err := svc.SendMessage(ctx, "carol", "bob", ptr("other"), nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.MarkMessagesAsRead(ctx, "bob", "alice"))
	assert.Equal(t, int64(1), counting.markReads.Load())
	left, err := counting.FindUnread(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Empty(t, left)

	require.NoError(t, svc.MarkMessagesAsRead(ctx, "bob", "alice"))
	assert.Equal(t, int64(1), counting.markReads.Load(), "second call performs no write")

	still, err := counting.FindUnread(ctx, "bob", "carol")
	require.NoError(t, err)
	assert.Len(t, still, 1)
}

func TestSubscribeToAllUnreadRecounts(t *testing.T) {
	svc, _ := newTestService(t)
	svc.now = steppingClock()
	ctx := context.Background()
	for _, from := range []string{"alice", "alice", "carol"} {
		_, err := svc.SendMessage(ctx, from, "bob", ptr("hey"), nil, nil)
		require.NoError(t, err)
	}

	var unread recorder[map[string]int]
	unsub, err := svc.SubscribeToAllUnread(ctx, "bob", unread.add)
	require.NoError(t, err)
	defer unsub()

	require.Eventually(t, func() bool {
		got, _ := unread.last()
		return got["alice"] == 2 && got["carol"] == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, svc.MarkMessagesAsRead(ctx, "bob", "alice"))
	assert.Eventually(t, func() bool {
		got, ok := unread.last()
		_, hasAlice := got["alice"]
		return ok && !hasAlice && got["carol"] == 1 && message.Total(got) == 1
	}, time.Second, 5*time.Millisecond)
}
