package account

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/models"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/internal/tokenstore"
)

// PublicActions are the unauthenticated auth endpoints forwarded as-is.
var PublicActions = []string{
	"forgot-password",
	"reset-password",
	"verify-email",
	"resend-verification",
	"activate-account",
}

// Credentials is a login attempt
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is a sign-up request
type Registration struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Dob       time.Time `json:"dob"`
}

// ProfileUpdate is the editable part of a profile
type ProfileUpdate struct {
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// Session is a successful login.
type Session struct {
	Tokens tokenstore.Tokens
	User   models.User
}

// Service wraps the backend's auth and profile endpoints
type Service struct {
	api backend.API
}

// NewService creates an account service
func NewService(api backend.API) *Service {
	return &Service{api: api}
}

// Login exchanges credentials for a token pair.
func (s *Service) Login(ctx context.Context, creds Credentials) (Session, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" || creds.Password == "" {
		return Session{}, storefronterrors.Invalid("Email and password are required")
	}

	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   Credentials{Email: email, Password: creds.Password},
	})
	if err != nil {
		return Session{}, fmt.Errorf("account: login %s: %w", email, err)
	}

	auth, err := backend.DecodeJSON[models.AuthResponse](resp)
	if err != nil {
		return Session{}, fmt.Errorf("account: login %s: %w", email, err)
	}
	if auth.AccessToken == "" {
		return Session{}, fmt.Errorf("account: login %s: no access token issued: %w", email, storefronterrors.ErrUnauthorized)
	}

	return Session{
		Tokens: tokenstore.Tokens{AccessToken: auth.AccessToken, RefreshToken: auth.RefreshToken},
		User:   auth.User,
	}, nil
}

// Register creates an account. The user must verify their email before
// logging in, so no session is started.
func (s *Service) Register(ctx context.Context, reg Registration) (*backend.Response, error) {
	body := map[string]any{
		"email":     strings.TrimSpace(reg.Email),
		"username":  strings.TrimSpace(reg.Username),
		"password":  reg.Password,
		"firstName": strings.TrimSpace(reg.FirstName),
		"lastName":  strings.TrimSpace(reg.LastName),
	}
	if body["email"] == "" || body["username"] == "" || reg.Password == "" {
		return nil, storefronterrors.Invalid("Email, username and password are required")
	}
	if !reg.Dob.IsZero() {
		body["dob"] = reg.Dob.UTC().Format(time.RFC3339)
	}

	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("account: register %s: %w", body["email"], err)
	}
	return resp, nil
}

// Logout tells the backend to revoke the session. Callers clear the cookie
// whatever the outcome.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Token:  token,
	}); err != nil {
		return fmt.Errorf("account: logout: %w", err)
	}
	return nil
}

// Me returns the signed-in user's profile and the raw backend body.
func (s *Service) Me(ctx context.Context, token string) (models.User, *backend.Response, error) {
	if token == "" {
		return models.User{}, nil, fmt.Errorf("account: me: %w", storefronterrors.ErrUnauthorized)
	}
	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/auth/me",
		Token:  token,
	})
	if err != nil {
		return models.User{}, nil, fmt.Errorf("account: me: %w", err)
	}
	user, err := backend.DecodeJSON[models.User](resp)
	if err != nil {
		return models.User{}, nil, fmt.Errorf("account: me: %w", err)
	}
	return user, resp, nil
}

// UpdateProfile saves profile changes. A username is always required.
func (s *Service) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*backend.Response, error) {
	update.Username = strings.TrimSpace(update.Username)
	if update.Username == "" {
		return nil, storefronterrors.Invalid("Username is required")
	}

	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodPut,
		Path:   "/users/profile",
		Token:  token,
		Body:   update,
	})
	if err != nil {
		return nil, fmt.Errorf("account: update profile: %w", err)
	}
	return resp, nil
}

// Forward relays one of the PublicActions with body.
func (s *Service) Forward(ctx context.Context, action string, body any) (*backend.Response, error) {
	known := false
	for _, a := range PublicActions {
		if a == action {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("account: unknown auth action %q: %w", action, storefronterrors.ErrNotFound)
	}

	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   "/auth/" + action,
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("account: %s: %w", action, err)
	}
	return resp, nil
}
