package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// ErrWeakPassword is returned by SignUp for passwords shorter than MinPasswordLength.
var ErrWeakPassword = errors.New("password should be at least 6 characters")

const (
	MinPasswordLength = 6
	saltLength        = 16
)

// HashPassword derives an argon2id key from password and salt.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
}

// LocalProvider keeps operator accounts in an AccountStore.
type LocalProvider struct {
	store AccountStore
	now   func() time.Time
}

func NewLocalProvider(store AccountStore) *LocalProvider {
	return &LocalProvider{store: store, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (User, error) {
	acc, err := p.store.AccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return User{}, err
	}

	hash := HashPassword(password, acc.Salt)
	if subtle.ConstantTimeCompare(hash, acc.PasswordHash) != 1 {
		return User{}, ErrInvalidCredentials
	}
	return User{ID: acc.ID, Email: acc.Email}, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return User{}, errors.New("email is required")
	}
	if len(password) < MinPasswordLength {
		return User{}, ErrWeakPassword
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return User{}, fmt.Errorf("generate salt: %w", err)
	}

	acc := Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: HashPassword(password, salt),
		Salt:         salt,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.store.CreateAccount(ctx, acc); err != nil {
		return User{}, err
	}
	return User{ID: acc.ID, Email: acc.Email}, nil
}
