package services

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/post"
	"saadSocialAPI/internal/store"
	"saadSocialAPI/internal/store/memory"
)

// gatedPosts counts open WatchRecent listeners. When gate is set, every
// WatchRecent call reports on entered and waits for gate to close.
type gatedPosts struct {
	store.Posts
	gate    chan struct{}
	entered chan struct{}
	active  atomic.Int64
}

func (p *gatedPosts) WatchRecent(ctx context.Context, limit int, fn func([]*post.Post)) (store.Unsubscribe, error) {
	if p.gate != nil {
		p.entered <- struct{}{}
		<-p.gate
	}
	unsub, err := p.Posts.WatchRecent(ctx, limit, fn)
	if err != nil {
		return nil, err
	}
	p.active.Add(1)
	return sync.OnceFunc(func() {
		unsub()
		p.active.Add(-1)
	}), nil
}

type gatedBackend struct {
	store.Backend
	posts *gatedPosts
}

func (b gatedBackend) Posts() store.Posts { return b.posts }

func newGatedService(t *testing.T, gated bool) (*DataService, *memory.Store, *gatedPosts) {
	t.Helper()
	base, mem := newTestService(t)
	posts := &gatedPosts{Posts: mem.Posts()}
	if gated {
		posts.gate = make(chan struct{})
		posts.entered = make(chan struct{}, 4)
	}
	svc := NewDataService(gatedBackend{Backend: mem, posts: posts}, base.auth)
	svc.now = steppingClock()
	return svc, mem, posts
}

// newLiveClient builds a client without a websocket; frames pile up in Send.
func newLiveClient(t *testing.T, hub *LiveHub, acc *account.Account) *LiveClient {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c := &LiveClient{
		hub:     hub,
		Send:    make(chan []byte, sendBuffer),
		UserID:  acc.ID,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		account: acc,
	}
	c.shell = NewShell(ctx, hub.svc, c.onShell)
	c.session = NewSessionController(ctx, hub.svc, c.onSession)
	t.Cleanup(c.close)
	return c
}

func waitEntered(t *testing.T, p *gatedPosts) {
	t.Helper()
	select {
	case <-p.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("WatchRecent was not called")
	}
}

func collect(errs chan error, n int) []error {
	out := make([]error, 0, n)
	for range n {
		out = append(out, <-errs)
	}
	return out
}

func TestLiveClientConcurrentFeedOpensKeepOneStream(t *testing.T) {
	svc, _, posts := newGatedService(t, true)
	alice := registerAlice(t, svc)
	c := newLiveClient(t, NewLiveHub(svc, nil), alice)

	errs := make(chan error, 2)
	go func() { errs <- c.openFeed(FeedCommunity) }()
	waitEntered(t, posts)
	go func() { errs <- c.openFeed(FeedCommunity) }()
	waitEntered(t, posts)
	close(posts.gate)

	for _, err := range collect(errs, 2) {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), posts.active.Load())

	c.closeFeed()
	assert.Equal(t, int64(0), posts.active.Load())
}

func TestLiveClientCloseFeedDuringOpen(t *testing.T) {
	svc, _, posts := newGatedService(t, true)
	alice := registerAlice(t, svc)
	c := newLiveClient(t, NewLiveHub(svc, nil), alice)

	errs := make(chan error, 1)
	go func() { errs <- c.openFeed(FeedProfile) }()
	waitEntered(t, posts)
	c.closeFeed()
	close(posts.gate)

	require.NoError(t, <-errs)
	assert.Equal(t, int64(0), posts.active.Load())
	c.mu.Lock()
	assert.Empty(t, c.feedMode)
	c.mu.Unlock()
}

func TestLiveClientRescopesFeedWhenFriendsChangeDuringOpen(t *testing.T) {
	svc, mem, posts := newGatedService(t, true)
	alice := registerAlice(t, svc)
	bob := seedAccount(t, mem, "bob", "Bob", "+2000")
	c := newLiveClient(t, NewLiveHub(svc, nil), alice)

	errs := make(chan error, 1)
	go func() { errs <- c.openFeed(FeedCommunity) }()
	waitEntered(t, posts)

	befriended := alice.Clone()
	befriended.Friends = []string{bob.ID}
	sessionDone := make(chan struct{})
	go func() {
		c.onSession(ViewAuthenticated, befriended)
		close(sessionDone)
	}()
	waitEntered(t, posts)
	close(posts.gate)

	require.NoError(t, <-errs)
	<-sessionDone
	assert.Equal(t, int64(1), posts.active.Load())
	c.mu.Lock()
	assert.Equal(t, []string{bob.ID}, c.feedFriends)
	c.mu.Unlock()

	_, err := svc.CreatePost(context.Background(), bob, "from bob", nil)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		for {
			select {
			case raw := <-c.Send:
				var f frame
				if json.Unmarshal(raw, &f) == nil && f.Type == "feed" &&
					slices.ContainsFunc(f.Posts, func(p FeedItem) bool { return p.AuthorID == bob.ID }) {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLiveClientFriendChangeDoesNotReopenClosedFeed(t *testing.T) {
	svc, mem, posts := newGatedService(t, false)
	alice := registerAlice(t, svc)
	bob := seedAccount(t, mem, "bob", "Bob", "+2000")
	c := newLiveClient(t, NewLiveHub(svc, nil), alice)

	require.NoError(t, c.openFeed(FeedCommunity))
	assert.Equal(t, int64(1), posts.active.Load())
	c.closeFeed()

	befriended := alice.Clone()
	befriended.Friends = []string{bob.ID}
	c.onSession(ViewAuthenticated, befriended)
	assert.Equal(t, int64(0), posts.active.Load())
}

func TestLiveHubCloseFeedReleasesListener(t *testing.T) {
	svc, _, posts := newGatedService(t, false)
	alice := registerAlice(t, svc)

	hub := NewLiveHub(svc, nil)
	defer hub.Close()
	conn := dialHub(t, hub, alice.ID)
	waitFor(t, conn, "session")

	require.NoError(t, conn.WriteJSON(LivePayload{Action: ActionOpenFeed}))
	waitFor(t, conn, "feed")
	require.NoError(t, conn.WriteJSON(LivePayload{Action: ActionOpenFeed, Mode: FeedProfile}))
	waitFor(t, conn, "feed")
	assert.Eventually(t, func() bool { return posts.active.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(LivePayload{Action: ActionCloseFeed}))
	assert.Eventually(t, func() bool { return posts.active.Load() == 0 }, 2*time.Second, 10*time.Millisecond)
}
