package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type localCredential struct {
	userID string
	hash   []byte
}

type localClaims struct {
	Generation int `json:"gen"`
	jwt.RegisteredClaims
}

// Local keeps credentials in process and issues HS256 tokens. Signing out
// bumps the identity's generation, which invalidates older tokens.
type Local struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	mu          sync.Mutex
	byEmail     map[string]*localCredential
	generations map[string]int
}

func NewLocal(secret string, ttl time.Duration) *Local {
	return &Local{
		secret:      []byte(secret),
		ttl:         ttl,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
		byEmail:     make(map[string]*localCredential),
		generations: make(map[string]int),
	}
}

// WithCost lowers the bcrypt cost; tests use bcrypt.MinCost.
func (l *Local) WithCost(cost int) *Local {
	l.cost = cost
	return l
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *Local) CreateCredential(ctx context.Context, email, password string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	key := normalizeEmail(email)

	l.mu.Lock()
	if _, exists := l.byEmail[key]; exists {
		l.mu.Unlock()
		return Session{}, ErrEmailExists
	}
	cred := &localCredential{userID: uuid.NewString(), hash: hash}
	l.byEmail[key] = cred
	gen := l.generations[cred.userID]
	l.mu.Unlock()

	return l.issue(cred.userID, gen)
}

func (l *Local) SignIn(ctx context.Context, email, password string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	l.mu.Lock()
	cred, ok := l.byEmail[normalizeEmail(email)]
	l.mu.Unlock()
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(cred.hash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	l.mu.Lock()
	gen := l.generations[cred.userID]
	l.mu.Unlock()
	return l.issue(cred.userID, gen)
}

func (l *Local) SignOut(ctx context.Context, userID string) error {
	l.mu.Lock()
	l.generations[userID]++
	l.mu.Unlock()
	return nil
}

func (l *Local) VerifyToken(ctx context.Context, token string) (string, error) {
	claims := &localClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return l.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(l.now))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	l.mu.Lock()
	current := l.generations[claims.Subject]
	l.mu.Unlock()
	if claims.Generation != current {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (l *Local) issue(userID string, gen int) (Session, error) {
	now := l.now()
	claims := localClaims{
		Generation: gen,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{UserID: userID, Token: signed}, nil
}
