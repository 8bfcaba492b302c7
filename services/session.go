package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/logger"
	"saadSocialAPI/internal/store"
)

type ViewState string

const (
	ViewLoading         ViewState = "loading"
	ViewUnauthenticated ViewState = "unauthenticated"
	ViewAuthenticated   ViewState = "authenticated"
)

// SessionController owns the signed-in account for one live connection.
// It follows auth changes for the identity, keeps a subscription on the
// account it currently holds and re-subscribes when that id changes.
// Panics raised by listener callbacks stop at this boundary: they are
// logged and the session is marked degraded.
type SessionController struct {
	svc      *DataService
	ctx      context.Context
	onChange func(ViewState, *account.Account)

	mu         sync.Mutex
	state      ViewState
	current    *account.Account
	watchingID string
	unsubAuth  store.Unsubscribe
	unsubUser  store.Unsubscribe
	degraded   bool
	closed     bool
}

// NewSessionController binds listeners to ctx; onChange may be nil.
func NewSessionController(ctx context.Context, svc *DataService, onChange func(ViewState, *account.Account)) *SessionController {
	if onChange == nil {
		onChange = func(ViewState, *account.Account) {}
	}
	return &SessionController{svc: svc, ctx: ctx, onChange: onChange, state: ViewLoading}
}

func (c *SessionController) Start(userID string) error {
	unsub, err := c.svc.OnAuthChange(c.ctx, userID, func(acc *account.Account) {
		c.guard("auth change", func() { c.handleAuth(acc) })
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsub()
		return nil
	}
	c.unsubAuth = unsub
	c.mu.Unlock()
	return nil
}

func (c *SessionController) handleAuth(acc *account.Account) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	var release store.Unsubscribe
	subscribeTo := ""
	if acc == nil {
		c.state = ViewUnauthenticated
		c.current = nil
		release, c.unsubUser = c.unsubUser, nil
		c.watchingID = ""
	} else {
		c.state = ViewAuthenticated
		c.current = acc
		if acc.ID != c.watchingID {
			release, c.unsubUser = c.unsubUser, nil
			c.watchingID = acc.ID
			subscribeTo = acc.ID
		}
	}
	state, current := c.state, c.current.Clone()
	c.mu.Unlock()

	if release != nil {
		release()
	}
	if subscribeTo != "" {
		c.subscribe(subscribeTo)
	}
	c.onChange(state, current)
}

func (c *SessionController) subscribe(id string) {
	unsub, err := c.svc.SubscribeToUser(c.ctx, id, func(acc *account.Account) {
		c.guard("account update", func() { c.handleUser(acc) })
	})
	if err != nil {
		logger.L().Warn("Session: could not subscribe to account", zap.String("user_id", id), zap.Error(err))
		c.markDegraded()
		return
	}
	c.mu.Lock()
	if c.closed || c.watchingID != id {
		c.mu.Unlock()
		unsub()
		return
	}
	c.unsubUser = unsub
	c.mu.Unlock()
}

func (c *SessionController) handleUser(acc *account.Account) {
	c.mu.Lock()
	if c.closed || c.state != ViewAuthenticated || acc.ID != c.watchingID {
		c.mu.Unlock()
		return
	}
	c.current = acc
	state, current := c.state, acc.Clone()
	c.mu.Unlock()
	c.onChange(state, current)
}

func (c *SessionController) guard(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("Session: recovered from panic",
				zap.String("in", what),
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()))
			c.markDegraded()
		}
	}()
	fn()
}

func (c *SessionController) markDegraded() {
	c.mu.Lock()
	c.degraded = true
	c.mu.Unlock()
}

func (c *SessionController) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Account is a copy of the current account, nil when signed out.
func (c *SessionController) Account() *account.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

func (c *SessionController) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// Close releases both listeners. Later callbacks are ignored.
func (c *SessionController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubAuth, unsubUser := c.unsubAuth, c.unsubUser
	c.unsubAuth, c.unsubUser = nil, nil
	c.mu.Unlock()
	if unsubAuth != nil {
		unsubAuth()
	}
	if unsubUser != nil {
		unsubUser()
	}
}
