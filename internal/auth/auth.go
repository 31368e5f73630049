// Package auth signs operators in to the Record Browser. Providers verify
// email/password credentials; the HTTP layer keeps the result in a signed
// session cookie and reports sign-in status changes through a Notifier.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAccountNotFound means the provider has no account for the email,
	// or cannot tell that apart from a bad password.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials means the account exists but the password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is returned by SignUp for a taken email.
	ErrAccountExists = errors.New("account already exists")
)

// User is a signed-in operator.
type User struct {
	ID    string
	Email string
}

// Provider verifies and registers operator accounts.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (User, error)
	SignUp(ctx context.Context, email, password string) (User, error)
}

// Account is a locally stored operator credential.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    time.Time
}

// AccountStore persists local accounts. AccountByEmail returns
// ErrAccountNotFound for unknown emails and CreateAccount returns
// ErrAccountExists for duplicates.
type AccountStore interface {
	CreateAccount(ctx context.Context, a Account) error
	AccountByEmail(ctx context.Context, email string) (Account, error)
}

// SignInOrRegister signs in and, when the provider reports an unknown
// account and allowRegister is set, registers the same credentials instead.
// Any account can be self-provisioned this way; see AUTH_ALLOW_SELF_REGISTER.
func SignInOrRegister(ctx context.Context, p Provider, email, password string, allowRegister bool) (User, error) {
	u, err := p.SignIn(ctx, email, password)
	if err == nil {
		return u, nil
	}
	if !allowRegister || !errors.Is(err, ErrAccountNotFound) {
		return User{}, err
	}

	u, err = p.SignUp(ctx, email, password)
	if err != nil {
		return User{}, fmt.Errorf("Login failed: %w", err)
	}
	return u, nil
}
