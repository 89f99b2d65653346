package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/ayush/microblog/internal/models"
	"github.com/ayush/microblog/internal/store"
)

var (
	ErrEmailBlank    = errors.New("email can't be blank")
	ErrPasswordBlank = errors.New("password can't be blank")
	// ErrInvalidCredentials covers both "no such user" and "wrong
	// password" so the response never reveals which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Credentials is one login attempt. Request-scoped, never persisted.
type Credentials struct {
	Email    string
	Password string
}

// CredentialStore is the lookup surface the login validator needs.
type CredentialStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	VerifyPassword(u *models.User, password string) bool
}

// Authenticate resolves a credential pair against the store and
// returns the user's ID. It has no side effects beyond the lookup;
// session state is the caller's business.
func Authenticate(ctx context.Context, users CredentialStore, creds Credentials) (string, error) {
	if strings.TrimSpace(creds.Email) == "" {
		return "", ErrEmailBlank
	}
	if creds.Password == "" {
		return "", ErrPasswordBlank
	}

	user, err := users.GetUserByEmail(ctx, creds.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !users.VerifyPassword(user, creds.Password) {
		return "", ErrInvalidCredentials
	}
	return user.ID, nil
}
