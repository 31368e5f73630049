package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: make(map[string]Account)}
}

func (m *memAccounts) CreateAccount(_ context.Context, a Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.Email]; ok {
		return ErrAccountExists
	}
	m.accounts[a.Email] = a
	return nil
}

func (m *memAccounts) AccountByEmail(_ context.Context, email string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(newMemAccounts())

	_, err := p.SignIn(ctx, "ops@example.com", "secret1")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	u, err := p.SignUp(ctx, " Ops@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", u.Email)
	assert.NotEmpty(t, u.ID)

	got, err := p.SignIn(ctx, "OPS@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = p.SignIn(ctx, "ops@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.SignUp(ctx, "ops@example.com", "another1")
	assert.ErrorIs(t, err, ErrAccountExists)

	_, err = p.SignUp(ctx, "new@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestHashPasswordDependsOnSalt(t *testing.T) {
	a := HashPassword("pw", []byte("salt-one-16bytes"))
	b := HashPassword("pw", []byte("salt-two-16bytes"))
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashPassword("pw", []byte("salt-one-16bytes")))
}

type stubProvider struct {
	signInErr error
	signUpErr error
	signUps   int
}

func (s *stubProvider) SignIn(context.Context, string, string) (User, error) {
	if s.signInErr != nil {
		return User{}, s.signInErr
	}
	return User{ID: "existing", Email: "a@b.co"}, nil
}

func (s *stubProvider) SignUp(context.Context, string, string) (User, error) {
	s.signUps++
	if s.signUpErr != nil {
		return User{}, s.signUpErr
	}
	return User{ID: "created", Email: "a@b.co"}, nil
}

func TestSignInOrRegister(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		provider      *stubProvider
		allowRegister bool
		wantID        string
		wantErr       string
		wantSignUps   int
	}{
		{name: "existing account", provider: &stubProvider{}, allowRegister: true, wantID: "existing"},
		{name: "unknown account registers", provider: &stubProvider{signInErr: ErrAccountNotFound}, allowRegister: true, wantID: "created", wantSignUps: 1},
		{name: "register disabled", provider: &stubProvider{signInErr: ErrAccountNotFound}, wantErr: "account not found"},
		{name: "wrong password does not register", provider: &stubProvider{signInErr: ErrInvalidCredentials}, allowRegister: true, wantErr: "invalid credentials"},
		{
			name:          "register failure is prefixed",
			provider:      &stubProvider{signInErr: ErrAccountNotFound, signUpErr: ErrWeakPassword},
			allowRegister: true,
			wantErr:       "Login failed: password should be at least 6 characters",
			wantSignUps:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := SignInOrRegister(ctx, tt.provider, "a@b.co", "pw", tt.allowRegister)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, u.ID)
			}
			assert.Equal(t, tt.wantSignUps, tt.provider.signUps)
		})
	}
}

func TestTokens(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	tok := NewTokens([]byte("0123456789abcdef"), time.Hour)
	tok.now = func() time.Time { return now }

	s, err := tok.Issue(User{ID: "u1", Email: "ops@example.com"})
	require.NoError(t, err)

	claims, err := tok.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, User{ID: "u1", Email: "ops@example.com"}, claims.User())

	other := NewTokens([]byte("fedcba9876543210"), time.Hour)
	other.now = tok.now
	_, err = other.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)

	now = now.Add(2 * time.Hour)
	_, err = tok.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tok.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNotifier(t *testing.T) {
	n := NewNotifier()
	var got []Status
	unsubscribe := n.Subscribe(func(s Status) { got = append(got, s) })

	n.Publish(Status{SessionID: "s1", SignedIn: true, Email: "ops@example.com"})
	unsubscribe()
	unsubscribe()
	n.Publish(Status{SessionID: "s1"})

	require.Len(t, got, 1)
	assert.True(t, got[0].SignedIn)
}

func firebaseServer(t *testing.T, handler func(path string, body map[string]any) (int, any)) *FirebaseProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		status, resp := handler(r.URL.Path, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	p, err := NewFirebaseProvider(context.Background(), "test-key",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return p
}

func firebaseError(code string) map[string]any {
	return map[string]any{"error": map[string]any{"code": 400, "message": code}}
}

func TestFirebaseProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("sign in", func(t *testing.T) {
		p := firebaseServer(t, func(path string, body map[string]any) (int, any) {
			assert.True(t, strings.HasSuffix(path, "/verifyPassword"), path)
			assert.Equal(t, "ops@example.com", body["email"])
			return http.StatusOK, map[string]any{"localId": "fb-1", "email": "ops@example.com"}
		})
		u, err := p.SignIn(ctx, "ops@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, User{ID: "fb-1", Email: "ops@example.com"}, u)
	})

	t.Run("sign up", func(t *testing.T) {
		p := firebaseServer(t, func(path string, _ map[string]any) (int, any) {
			assert.True(t, strings.HasSuffix(path, "/signupNewUser"), path)
			return http.StatusOK, map[string]any{"localId": "fb-2", "email": "new@example.com"}
		})
		u, err := p.SignUp(ctx, "new@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "fb-2", u.ID)
	})

	codes := map[string]error{
		"EMAIL_NOT_FOUND":           ErrAccountNotFound,
		"INVALID_LOGIN_CREDENTIALS": ErrAccountNotFound,
		"INVALID_PASSWORD":          ErrInvalidCredentials,
		"EMAIL_EXISTS":              ErrAccountExists,
		"WEAK_PASSWORD : Password should be at least 6 characters": ErrWeakPassword,
	}
	for code, want := range codes {
		t.Run(code, func(t *testing.T) {
			p := firebaseServer(t, func(string, map[string]any) (int, any) {
				return http.StatusBadRequest, firebaseError(code)
			})
			_, err := p.SignIn(ctx, "ops@example.com", "secret1")
			assert.ErrorIs(t, err, want)
			assert.Contains(t, err.Error(), code)
		})
	}

	t.Run("unknown code keeps provider text", func(t *testing.T) {
		p := firebaseServer(t, func(string, map[string]any) (int, any) {
			return http.StatusBadRequest, firebaseError("TOO_MANY_ATTEMPTS_TRY_LATER")
		})
		_, err := p.SignIn(ctx, "ops@example.com", "secret1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrAccountNotFound))
		assert.Contains(t, err.Error(), "TOO_MANY_ATTEMPTS_TRY_LATER")
	})
}
