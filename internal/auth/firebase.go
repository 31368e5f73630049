package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// FirebaseProvider signs operators in against Firebase Authentication
// through the Identity Toolkit REST API.
type FirebaseProvider struct {
	svc *identitytoolkit.Service
}

func NewFirebaseProvider(ctx context.Context, apiKey string, opts ...option.ClientOption) (*FirebaseProvider, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create identity toolkit service: %w", err)
	}
	return &FirebaseProvider{svc: svc}, nil
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (User, error) {
	resp, err := p.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return User{}, mapFirebaseError(err)
	}
	return User{ID: resp.LocalId, Email: resp.Email}, nil
}

func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (User, error) {
	resp, err := p.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return User{}, mapFirebaseError(err)
	}
	return User{ID: resp.LocalId, Email: resp.Email}, nil
}

// firebaseCode extracts the leading error code, e.g. "WEAK_PASSWORD" from
// "WEAK_PASSWORD : Password should be at least 6 characters".
func firebaseCode(msg string) string {
	code, _, _ := strings.Cut(msg, " ")
	return code
}

func mapFirebaseError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch firebaseCode(gerr.Message) {
	case "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS":
		return fmt.Errorf("%w: %s", ErrAccountNotFound, gerr.Message)
	case "INVALID_PASSWORD":
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, gerr.Message)
	case "EMAIL_EXISTS":
		return fmt.Errorf("%w: %s", ErrAccountExists, gerr.Message)
	case "WEAK_PASSWORD":
		return fmt.Errorf("%w: %s", ErrWeakPassword, gerr.Message)
	default:
		return fmt.Errorf("firebase auth: %s", gerr.Message)
	}
}
