package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/apperr"
	"saadSocialAPI/internal/logger"
	"saadSocialAPI/internal/message"
	"saadSocialAPI/internal/store"
)

type Tab string

const (
	TabProfile     Tab = "profile"
	TabChats       Tab = "chats"
	TabSearch      Tab = "search"
	TabSettings    Tab = "settings"
	TabAIAssistant Tab = "ai-assistant"
	TabCommunity   Tab = "community"
)

var tabs = []Tab{TabProfile, TabChats, TabSearch, TabSettings, TabAIAssistant, TabCommunity}

func ParseTab(s string) (Tab, error) {
	if t := Tab(s); slices.Contains(tabs, t) {
		return t, nil
	}
	return "", apperr.New(apperr.KindValidation, "error_validation", fmt.Sprintf("unknown tab %q", s))
}

// ShellState is the derived view state pushed to the client.
type ShellState struct {
	Tab            Tab                `json:"tab"`
	SelectedFriend string             `json:"selectedFriend,omitempty"`
	Friends        []*account.Account `json:"friends"`
	Requests       []*account.Account `json:"requests"`
	Unread         map[string]int     `json:"unread"`
	TotalUnread    int                `json:"totalUnread"`
}

// Shell derives the friends list, pending requests and unread counts for
// the signed-in account. Profiles are re-resolved whenever the account's
// friends or receivedRequests change; a resolution started for an older
// snapshot is discarded if a newer one began in the meantime.
type Shell struct {
	svc      *DataService
	ctx      context.Context
	onChange func(ShellState)

	mu          sync.Mutex
	userID      string
	tab         Tab
	selected    string
	friendIDs   []string
	requestIDs  []string
	friends     []*account.Account
	requests    []*account.Account
	unread      map[string]int
	generation  uint64
	unsubUnread store.Unsubscribe
	wg          sync.WaitGroup
	closed      bool
}

func NewShell(ctx context.Context, svc *DataService, onChange func(ShellState)) *Shell {
	if onChange == nil {
		onChange = func(ShellState) {}
	}
	return &Shell{
		svc:      svc,
		ctx:      ctx,
		onChange: onChange,
		tab:      TabProfile,
		friends:  []*account.Account{},
		requests: []*account.Account{},
		unread:   map[string]int{},
	}
}

// Start subscribes to the unread counts for userID. Calling it again with a
// different id moves the subscription.
func (s *Shell) Start(userID string) error {
	s.mu.Lock()
	if s.userID == userID && s.unsubUnread != nil {
		s.mu.Unlock()
		return nil
	}
	old := s.unsubUnread
	s.unsubUnread = nil
	s.userID = userID
	s.unread = map[string]int{}
	s.mu.Unlock()
	if old != nil {
		old()
	}

	unsub, err := s.svc.SubscribeToAllUnread(s.ctx, userID, func(counts map[string]int) {
		s.mu.Lock()
		if s.closed || s.userID != userID {
			s.mu.Unlock()
			return
		}
		s.unread = counts
		state := s.snapshotLocked()
		s.mu.Unlock()
		s.onChange(state)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed || s.userID != userID {
		s.mu.Unlock()
		unsub()
		return nil
	}
	s.unsubUnread = unsub
	s.mu.Unlock()
	return nil
}

// SetAccount feeds a new account snapshot. Profiles are fetched in the
// background only when the friend or request sets changed.
func (s *Shell) SetAccount(acc *account.Account) {
	if acc == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if slices.Equal(s.friendIDs, acc.Friends) && slices.Equal(s.requestIDs, acc.ReceivedRequests) {
		s.mu.Unlock()
		return
	}
	s.friendIDs = slices.Clone(acc.Friends)
	s.requestIDs = slices.Clone(acc.ReceivedRequests)
	s.generation++
	gen := s.generation
	friendIDs, requestIDs := s.friendIDs, s.requestIDs
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		friends := s.resolve(friendIDs)
		requests := s.resolve(requestIDs)

		s.mu.Lock()
		if s.closed || gen != s.generation {
			s.mu.Unlock()
			return
		}
		s.friends, s.requests = friends, requests
		state := s.snapshotLocked()
		s.mu.Unlock()
		s.onChange(state)
	}()
}

// resolve fetches the profiles for ids and drops the ones that no longer
// exist or failed to load.
func (s *Shell) resolve(ids []string) []*account.Account {
	out := make([]*account.Account, 0, len(ids))
	for _, id := range ids {
		acc, err := s.svc.GetUser(s.ctx, id)
		if err != nil {
			logger.L().Warn("Shell: could not resolve profile", zap.String("user_id", id), zap.Error(err))
			continue
		}
		if acc != nil {
			out = append(out, acc)
		}
	}
	return out
}

// SetTab switches tabs. Leaving chats clears the selected friend.
func (s *Shell) SetTab(tab Tab) {
	s.mu.Lock()
	s.tab = tab
	if tab != TabChats {
		s.selected = ""
	}
	state := s.snapshotLocked()
	s.mu.Unlock()
	s.onChange(state)
}

// SelectFriend opens the chats tab on friendID.
func (s *Shell) SelectFriend(friendID string) {
	s.mu.Lock()
	s.tab = TabChats
	s.selected = friendID
	state := s.snapshotLocked()
	s.mu.Unlock()
	s.onChange(state)
}

func (s *Shell) Snapshot() ShellState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Shell) snapshotLocked() ShellState {
	unread := maps.Clone(s.unread)
	return ShellState{
		Tab:            s.tab,
		SelectedFriend: s.selected,
		Friends:        slices.Clone(s.friends),
		Requests:       slices.Clone(s.requests),
		Unread:         unread,
		TotalUnread:    message.Total(unread),
	}
}

// Close releases the unread listener and waits for pending resolutions.
func (s *Shell) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.unsubUnread
	s.unsubUnread = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	s.wg.Wait()
}
