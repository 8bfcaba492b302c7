// LiveHub serves the websocket views. Each connection gets a LiveClient
// that owns a session controller, a shell, and at most one conversation
// stream and one feed stream; opening a second stream of a kind disposes
// the first. ReadPump handles actions coming from the browser, WritePump
// delivers frames and keeps the connection alive with pings.
package services

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/ai"
	"saadSocialAPI/internal/apperr"
	"saadSocialAPI/internal/locale"
	"saadSocialAPI/internal/logger"
	"saadSocialAPI/internal/message"
	"saadSocialAPI/internal/post"
	"saadSocialAPI/internal/store"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBuffer = 256
)

const (
	FeedCommunity = "community"
	FeedProfile   = "profile"
)

const (
	ActionOpenConversation  = "open_conversation"
	ActionCloseConversation = "close_conversation"
	ActionOpenFeed          = "open_feed"
	ActionCloseFeed         = "close_feed"
	ActionSetTab            = "set_tab"
)

type LivePayload struct {
	Action string `json:"action"`
	PeerID string `json:"peerId,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Tab    string `json:"tab,omitempty"`
}

type sessionFrame struct {
	Type     string           `json:"type"`
	State    ViewState        `json:"state"`
	Account  *account.Account `json:"account"`
	Dir      string           `json:"dir"`
	Degraded bool             `json:"degraded,omitempty"`
}

type shellFrame struct {
	Type  string     `json:"type"`
	State ShellState `json:"state"`
}

type conversationFrame struct {
	Type     string             `json:"type"`
	PeerID   string             `json:"peerId"`
	Messages []*message.Message `json:"messages"`
}

type suggestionsFrame struct {
	Type        string   `json:"type"`
	PeerID      string   `json:"peerId"`
	Suggestions []string `json:"suggestions"`
}

// FeedItem is a post with its age rendered for display.
type FeedItem struct {
	*post.Post
	Age string `json:"age"`
}

type feedFrame struct {
	Type  string     `json:"type"`
	Mode  string     `json:"mode"`
	Posts []FeedItem `json:"posts"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Key   string `json:"key"`
	Error string `json:"error"`
}

type LiveHub struct {
	svc     *DataService
	advisor *ai.Advisor
	now     func() time.Time

	mu      sync.Mutex
	clients map[*LiveClient]struct{}
}

func NewLiveHub(svc *DataService, advisor *ai.Advisor) *LiveHub {
	return &LiveHub{
		svc:     svc,
		advisor: advisor,
		now:     time.Now,
		clients: make(map[*LiveClient]struct{}),
	}
}

// Connections is the number of attached clients.
func (h *LiveHub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Attach starts the pumps for an upgraded connection authenticated as
// userID. It returns once the session has been started.
func (h *LiveHub) Attach(conn *websocket.Conn, userID string) (*LiveClient, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &LiveClient{
		hub:    h,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		UserID: userID,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.shell = NewShell(ctx, h.svc, c.onShell)
	c.session = NewSessionController(ctx, h.svc, c.onSession)

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.WritePump()
	if err := c.session.Start(userID); err != nil {
		c.close()
		return nil, err
	}
	go c.ReadPump()
	logger.L().Info("Live client connected", zap.String("user_id", userID))
	return c, nil
}

// Close disconnects every client.
func (h *LiveHub) Close() {
	h.mu.Lock()
	all := make([]*LiveClient, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.Unlock()
	for _, c := range all {
		c.close()
	}
}

func (h *LiveHub) unregister(c *LiveClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// LiveClient is the middleman between one websocket and the data service.
type LiveClient struct {
	hub    *LiveHub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	session *SessionController
	shell   *Shell

	mu          sync.Mutex
	account     *account.Account
	convGen     uint64
	convUnsub   store.Unsubscribe
	feedGen     uint64
	feedMode    string
	feedFriends []string
	feedUnsub   store.Unsubscribe
}

func (c *LiveClient) ReadPump() {
	defer c.close()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.L().Warn("Live client read error", zap.String("user_id", c.UserID), zap.Error(err))
			}
			return
		}

		var payload LivePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			c.sendError(apperr.New(apperr.KindValidation, "error_validation", "invalid payload"))
			continue
		}
		if err := c.handle(payload); err != nil {
			c.sendError(err)
		}
	}
}

// WritePump handles frames going to the browser.
func (c *LiveClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				go c.close()
				return
			}
			w.Write(frame)
			if err := w.Close(); err != nil {
				go c.close()
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				go c.close()
				return
			}

		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *LiveClient) handle(p LivePayload) error {
	switch p.Action {
	case ActionOpenConversation:
		if p.PeerID == "" {
			return apperr.New(apperr.KindValidation, "error_validation", "peerId is required")
		}
		return c.openConversation(p.PeerID)
	case ActionCloseConversation:
		c.closeConversation()
		return nil
	case ActionOpenFeed:
		mode := p.Mode
		if mode == "" {
			mode = FeedCommunity
		}
		if mode != FeedCommunity && mode != FeedProfile {
			return apperr.New(apperr.KindValidation, "error_validation", "unknown feed mode")
		}
		return c.openFeed(mode)
	case ActionCloseFeed:
		c.closeFeed()
		return nil
	case ActionSetTab:
		tab, err := ParseTab(p.Tab)
		if err != nil {
			return err
		}
		c.shell.SetTab(tab)
		if tab != TabChats {
			c.closeConversation()
		}
		return nil
	}
	return apperr.New(apperr.KindValidation, "error_validation", "unknown action")
}

func (c *LiveClient) onSession(state ViewState, acc *account.Account) {
	if state != ViewAuthenticated {
		c.sendJSON(sessionFrame{Type: "session", State: state, Dir: "ltr"})
		// signed out elsewhere; nothing left to stream
		go c.close()
		return
	}

	c.mu.Lock()
	c.account = acc
	// re-scope a requested feed while still holding the lock that records
	// the new friend list
	mode := c.feedMode
	rescope := mode != "" && !slices.Equal(c.feedFriends, acc.Friends)
	var feedGen uint64
	var prevFeed store.Unsubscribe
	if rescope {
		feedGen, prevFeed = c.nextFeedLocked(mode, acc.Friends)
	}
	c.mu.Unlock()

	if err := c.shell.Start(acc.ID); err != nil {
		logger.L().Warn("Live client: unread subscription failed", zap.String("user_id", acc.ID), zap.Error(err))
	}
	c.shell.SetAccount(acc)
	if rescope {
		if err := c.subscribeFeed(feedGen, prevFeed, mode, acc); err != nil {
			logger.L().Warn("Live client: feed resubscribe failed", zap.String("user_id", acc.ID), zap.Error(err))
		}
	}

	dir := "ltr"
	if locale.IsRTL(acc.Language) {
		dir = "rtl"
	}
	c.sendJSON(sessionFrame{Type: "session", State: state, Account: acc, Dir: dir, Degraded: c.session.Degraded()})
}

func (c *LiveClient) onShell(state ShellState) {
	c.sendJSON(shellFrame{Type: "shell", State: state})
}

func (c *LiveClient) openConversation(peerID string) error {
	c.closeConversation()

	c.mu.Lock()
	c.convGen++
	gen := c.convGen
	c.mu.Unlock()

	svc := c.hub.svc
	unsub, err := svc.SubscribeToMessages(c.ctx, c.UserID, peerID, func(msgs []*message.Message) {
		if !c.currentConversation(gen) {
			return
		}
		c.sendJSON(conversationFrame{Type: "conversation", PeerID: peerID, Messages: msgs})
		if err := svc.MarkMessagesAsRead(c.ctx, c.UserID, peerID); err != nil {
			logger.L().Warn("Live client: mark read failed", zap.String("peer_id", peerID), zap.Error(err))
		}
		if c.hub.advisor != nil && ai.WantsSuggestions(msgs, peerID) {
			last := *msgs[len(msgs)-1].Text
			convContext := ai.ReplyContext(msgs)
			go func() {
				replies := c.hub.advisor.SmartReply(c.ctx, convContext, last)
				if c.currentConversation(gen) {
					c.sendJSON(suggestionsFrame{Type: "suggestions", PeerID: peerID, Suggestions: replies})
				}
			}()
		}
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.convGen != gen {
		c.mu.Unlock()
		unsub()
		return nil
	}
	c.convUnsub = unsub
	c.mu.Unlock()

	if err := svc.MarkMessagesAsRead(c.ctx, c.UserID, peerID); err != nil {
		logger.L().Warn("Live client: mark read failed", zap.String("peer_id", peerID), zap.Error(err))
	}
	c.shell.SelectFriend(peerID)
	return nil
}

func (c *LiveClient) currentConversation(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.convGen == gen
}

func (c *LiveClient) closeConversation() {
	c.mu.Lock()
	unsub := c.convUnsub
	c.convUnsub = nil
	c.convGen++
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (c *LiveClient) openFeed(mode string) error {
	c.mu.Lock()
	acc := c.account
	if acc == nil {
		c.mu.Unlock()
		return apperr.ErrUnauthorized
	}
	gen, prev := c.nextFeedLocked(mode, acc.Friends)
	c.mu.Unlock()
	return c.subscribeFeed(gen, prev, mode, acc)
}

// nextFeedLocked supersedes the current feed stream and records the one
// about to be opened. The caller releases prev outside the lock.
func (c *LiveClient) nextFeedLocked(mode string, friends []string) (gen uint64, prev store.Unsubscribe) {
	prev = c.feedUnsub
	c.feedUnsub = nil
	c.feedGen++
	c.feedMode = mode
	c.feedFriends = slices.Clone(friends)
	return c.feedGen, prev
}

// subscribeFeed opens the feed stream for generation gen. If another open or
// close happened while subscribing, the new listener is released at once.
func (c *LiveClient) subscribeFeed(gen uint64, prev store.Unsubscribe, mode string, acc *account.Account) error {
	if prev != nil {
		prev()
	}

	unsub, err := c.hub.svc.SubscribeToFeed(c.ctx, acc.ID, acc.Friends, func(posts []*post.Post) {
		if !c.currentFeed(gen) {
			return
		}
		if mode == FeedProfile {
			posts = OwnPosts(posts, acc.ID)
		}
		now := c.hub.now()
		items := make([]FeedItem, 0, len(posts))
		for _, p := range posts {
			items = append(items, FeedItem{Post: p, Age: post.FormatAge(p.Timestamp, now)})
		}
		c.sendJSON(feedFrame{Type: "feed", Mode: mode, Posts: items})
	})
	if err != nil {
		c.mu.Lock()
		if c.feedGen == gen {
			c.feedMode = ""
			c.feedFriends = nil
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.feedGen != gen {
		c.mu.Unlock()
		unsub()
		return nil
	}
	c.feedUnsub = unsub
	c.mu.Unlock()
	return nil
}

func (c *LiveClient) currentFeed(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedGen == gen
}

func (c *LiveClient) closeFeed() {
	c.mu.Lock()
	unsub := c.feedUnsub
	c.feedUnsub = nil
	c.feedGen++
	c.feedMode = ""
	c.feedFriends = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (c *LiveClient) sendError(err error) {
	lang := account.LanguageEnglish
	c.mu.Lock()
	if c.account != nil {
		lang = c.account.Language
	}
	c.mu.Unlock()
	c.sendJSON(errorFrame{Type: "error", Key: apperr.KeyOf(err), Error: locale.Lookup(lang, apperr.KeyOf(err))})
}

// sendJSON queues a frame. A client that cannot keep up is disconnected.
func (c *LiveClient) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.L().Error("Live client: marshal frame", zap.Error(err))
		return
	}
	select {
	case <-c.done:
	case c.Send <- data:
	default:
		logger.L().Warn("Live client send buffer full, disconnecting", zap.String("user_id", c.UserID))
		go c.close()
	}
}

func (c *LiveClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
		c.closeConversation()
		c.closeFeed()
		c.shell.Close()
		c.session.Close()
		c.hub.unregister(c)
		logger.L().Info("Live client disconnected", zap.String("user_id", c.UserID))
	})
}

// Done is closed once the client has been torn down.
func (c *LiveClient) Done() <-chan struct{} {
	return c.done
}
