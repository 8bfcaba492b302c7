package auth

import (
	"context"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
)

// Clerk accepts Clerk session tokens whose subject is the account id.
// Registration never creates Clerk users, so only accounts provisioned
// under their Clerk user id resolve; main wraps it in Provisioned.
type Clerk struct{}

// NewClerk sets the process-wide Clerk secret key used for JWKS lookups.
func NewClerk(secretKey string) *Clerk {
	clerk.SetKey(secretKey)
	return &Clerk{}
}

func (Clerk) VerifyToken(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
	if err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
