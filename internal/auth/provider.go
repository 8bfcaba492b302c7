// Package auth wraps the credential providers: Firebase Authentication for
// production, a bcrypt/JWT provider for local development, and Clerk as an
// additional bearer token issuer.
package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already in use")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnknownAccount     = errors.New("token subject has no account")
)

// Session is a signed-in identity and the bearer token that proves it.
type Session struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// Verifier resolves a bearer token to the account id it was issued for.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type Provider interface {
	Verifier
	// CreateCredential registers email/password and signs the new identity in.
	CreateCredential(ctx context.Context, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	// SignOut invalidates every token issued for userID so far.
	SignOut(ctx context.Context, userID string) error
}

// Chain tries each verifier in order and returns the first success.
type Chain []Verifier

func (c Chain) VerifyToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	var lastErr error = ErrInvalidToken
	for _, v := range c {
		if v == nil {
			continue
		}
		uid, err := v.VerifyToken(ctx, token)
		if err == nil {
			return uid, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// AccountExists reports whether an account is stored under id.
type AccountExists func(ctx context.Context, id string) (bool, error)

// Provisioned accepts tokens from Verifier only when their subject already
// has an account. Issuers that never go through registration, such as
// Clerk, resolve only accounts created under the issuer's user id.
type Provisioned struct {
	Verifier Verifier
	Exists   AccountExists
}

func (p Provisioned) VerifyToken(ctx context.Context, token string) (string, error) {
	uid, err := p.Verifier.VerifyToken(ctx, token)
	if err != nil {
		return "", err
	}
	ok, err := p.Exists(ctx, uid)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnknownAccount
	}
	return uid, nil
}
