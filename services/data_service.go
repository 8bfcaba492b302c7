package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/apperr"
	"saadSocialAPI/internal/auth"
	"saadSocialAPI/internal/logger"
	"saadSocialAPI/internal/store"
)

const (
	// SearchScanLimit bounds how many accounts a search reads before
	// filtering.
	SearchScanLimit = 50
	// MaxAvatarBytes is the largest decoded inline avatar accepted.
	MaxAvatarBytes = 1024 * 1024
)

// DataService is the only component that talks to the backend and the
// credential provider. Handlers, the session controller and the live hub all
// go through it.
type DataService struct {
	users    store.Users
	posts    store.Posts
	messages store.Messages
	auth     auth.Provider
	validate *validator.Validate
	now      func() time.Time

	listeners atomic.Int64

	authMu   sync.Mutex
	authSeq  int
	authSubs map[string]map[int]func(*account.Account)
}

func NewDataService(backend store.Backend, provider auth.Provider) *DataService {
	return &DataService{
		users:    backend.Users(),
		posts:    backend.Posts(),
		messages: backend.Messages(),
		auth:     provider,
		validate: validator.New(),
		now:      time.Now,
		authSubs: make(map[string]map[int]func(*account.Account)),
	}
}

// ActiveListeners is the number of live listeners handed out and not yet
// released.
func (s *DataService) ActiveListeners() int64 {
	return s.listeners.Load()
}

func (s *DataService) track(unsub store.Unsubscribe) store.Unsubscribe {
	s.listeners.Add(1)
	return store.Unsubscribe(sync.OnceFunc(func() {
		unsub()
		s.listeners.Add(-1)
	}))
}

func (s *DataService) Validate(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return apperr.Wrap(apperr.KindValidation, "error_validation", validationMessage(err), err)
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" failed "+fe.Tag())
	}
	return strings.Join(fields, "; ")
}

func backendWrite(message string, err error) error {
	return apperr.Wrap(apperr.KindBackendWrite, "error_backend_write", message, err)
}

func backendRead(message string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(apperr.KindNotFound, "error_not_found", message, err)
	}
	return apperr.Wrap(apperr.KindInternal, "error_internal", message, err)
}

// Register checks the phone number before creating any credential. The
// check is advisory: two concurrent registrations can still both pass it.
func (s *DataService) Register(ctx context.Context, req account.RegisterRequest) (*account.Account, auth.Session, error) {
	if err := s.Validate(req); err != nil {
		return nil, auth.Session{}, err
	}

	existing, err := s.users.FindByPhone(ctx, req.Phone)
	if err != nil {
		return nil, auth.Session{}, backendRead("phone lookup failed", err)
	}
	if len(existing) > 0 {
		return nil, auth.Session{}, apperr.ErrDuplicatePhone
	}

	sess, err := s.auth.CreateCredential(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			return nil, auth.Session{}, apperr.Wrap(apperr.KindAuthProvider, "error_email_exists", "email already in use", err)
		}
		return nil, auth.Session{}, apperr.Wrap(apperr.KindAuthProvider, "error_auth", "could not create credential", err)
	}

	acc := account.New(sess.UserID, req.Name, req.Email, req.Phone)
	if err := s.users.Create(ctx, acc); err != nil {
		// the credential stays behind; login reports it as an orphan
		return nil, auth.Session{}, backendWrite("could not write account", err)
	}

	logger.L().Info("Account registered", zap.String("user_id", acc.ID))
	s.emitAuth(acc.ID, acc.Clone())
	return acc, sess, nil
}

// Login returns a nil account with a valid session when the credential has
// no account record.
func (s *DataService) Login(ctx context.Context, req account.LoginRequest) (*account.Account, auth.Session, error) {
	if err := s.Validate(req); err != nil {
		return nil, auth.Session{}, err
	}
	sess, err := s.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, auth.Session{}, apperr.Wrap(apperr.KindAuthProvider, apperr.ErrInvalidCredentials.Key, apperr.ErrInvalidCredentials.Message, err)
		}
		return nil, auth.Session{}, apperr.Wrap(apperr.KindAuthProvider, "error_auth", "sign in failed", err)
	}

	acc, err := s.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, auth.Session{}, err
	}
	if acc == nil {
		logger.L().Warn("Signed in identity has no account record", zap.String("user_id", sess.UserID))
	}
	s.emitAuth(sess.UserID, acc)
	return acc, sess, nil
}

func (s *DataService) Logout(ctx context.Context, userID string) error {
	if err := s.auth.SignOut(ctx, userID); err != nil {
		return apperr.Wrap(apperr.KindAuthProvider, "error_auth", "sign out failed", err)
	}
	s.emitAuth(userID, nil)
	return nil
}

// VerifyToken resolves a bearer token through the credential provider.
func (s *DataService) VerifyToken(ctx context.Context, token string) (string, error) {
	return s.auth.VerifyToken(ctx, token)
}

// OnAuthChange fires cb with the freshly fetched account for userID now and
// after every later sign-in, and with nil after sign-out.
func (s *DataService) OnAuthChange(ctx context.Context, userID string, cb func(*account.Account)) (store.Unsubscribe, error) {
	s.authMu.Lock()
	s.authSeq++
	id := s.authSeq
	if s.authSubs[userID] == nil {
		s.authSubs[userID] = make(map[int]func(*account.Account))
	}
	s.authSubs[userID][id] = cb
	s.authMu.Unlock()

	unsub := s.track(func() {
		s.authMu.Lock()
		delete(s.authSubs[userID], id)
		if len(s.authSubs[userID]) == 0 {
			delete(s.authSubs, userID)
		}
		s.authMu.Unlock()
	})

	acc, err := s.GetUser(ctx, userID)
	if err != nil {
		unsub()
		return nil, err
	}
	cb(acc)
	return unsub, nil
}

func (s *DataService) emitAuth(userID string, acc *account.Account) {
	s.authMu.Lock()
	subs := make([]func(*account.Account), 0, len(s.authSubs[userID]))
	for _, cb := range s.authSubs[userID] {
		subs = append(subs, cb)
	}
	s.authMu.Unlock()
	for _, cb := range subs {
		cb(acc.Clone())
	}
}

// GetUser returns nil without error when the account does not exist.
func (s *DataService) GetUser(ctx context.Context, id string) (*account.Account, error) {
	acc, err := s.users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, backendRead("could not read account", err)
	}
	return acc, nil
}

func (s *DataService) SubscribeToUser(ctx context.Context, id string, cb func(*account.Account)) (store.Unsubscribe, error) {
	unsub, err := s.users.Watch(ctx, id, cb)
	if err != nil {
		return nil, backendRead("could not watch account", err)
	}
	return s.track(unsub), nil
}

// UpdateProfile merges the supplied fields only. The caller sees the change
// through its account subscription, not in the return value.
func (s *DataService) UpdateProfile(ctx context.Context, userID string, upd account.ProfileUpdate) error {
	if err := s.Validate(upd); err != nil {
		return err
	}
	if upd.IsEmpty() {
		return nil
	}
	if upd.Avatar != nil && inlineSize(*upd.Avatar) > MaxAvatarBytes {
		return apperr.New(apperr.KindValidation, "error_image_too_large", "Image is too large. Please select an image smaller than 1MB.")
	}
	if err := s.users.Update(ctx, userID, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return backendRead("account not found", err)
		}
		return backendWrite("could not update profile", err)
	}
	return nil
}

// inlineSize is the decoded byte size of a base64 data URL, or zero for any
// other string.
func inlineSize(s string) int {
	if !strings.HasPrefix(s, "data:") {
		return 0
	}
	_, payload, ok := strings.Cut(s, ",")
	if !ok {
		return 0
	}
	payload = strings.TrimRight(payload, "=")
	return len(payload) * 3 / 4
}

// SearchUsers scans at most SearchScanLimit accounts and filters them here:
// case-insensitive substring on name, plain substring on phone. Accounts
// beyond the scan window are never found.
func (s *DataService) SearchUsers(ctx context.Context, excludeID, term string) ([]*account.Account, error) {
	scanned, err := s.users.List(ctx, SearchScanLimit)
	if err != nil {
		return nil, backendRead("could not list accounts", err)
	}
	needle := strings.ToLower(term)
	out := make([]*account.Account, 0, len(scanned))
	for _, a := range scanned {
		if a.ID == excludeID {
			continue
		}
		if term == "" || strings.Contains(strings.ToLower(a.Name), needle) || strings.Contains(a.Phone, needle) {
			out = append(out, a)
		}
	}
	return out, nil
}
