package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// Firebase creates and revokes credentials with the Admin SDK and signs in
// through the Identity Toolkit password endpoint, which returns the same ID
// token a browser client would receive.
type Firebase struct {
	admin   *fbauth.Client
	toolkit *identitytoolkit.RelyingpartyService
}

func NewFirebase(ctx context.Context, app *firebase.App, apiKey string) (*Firebase, error) {
	admin, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting auth client: %w", err)
	}
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("error creating identity toolkit client: %w", err)
	}
	return &Firebase{admin: admin, toolkit: svc.Relyingparty}, nil
}

func (f *Firebase) CreateCredential(ctx context.Context, email, password string) (Session, error) {
	params := (&fbauth.UserToCreate{}).Email(email).Password(password)
	if _, err := f.admin.CreateUser(ctx, params); err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return Session{}, ErrEmailExists
		}
		return Session{}, fmt.Errorf("create credential: %w", err)
	}
	return f.SignIn(ctx, email, password)
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (Session, error) {
	resp, err := f.toolkit.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("sign in: %w", err)
	}
	return Session{UserID: resp.LocalId, Token: resp.IdToken}, nil
}

func (f *Firebase) SignOut(ctx context.Context, userID string) error {
	if err := f.admin.RevokeRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoke tokens for %s: %w", userID, err)
	}
	return nil
}

func (f *Firebase) VerifyToken(ctx context.Context, token string) (string, error) {
	t, err := f.admin.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return "", ErrInvalidToken
	}
	return t.UID, nil
}
