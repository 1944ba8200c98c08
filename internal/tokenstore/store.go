package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quickbidz-storefront/internal/storefronterrors"

	"github.com/gin-gonic/gin"
)

// DefaultCookieName matches the key the storefront has always used.
const DefaultCookieName = "auth_tokens"

// DefaultMaxAge is the cookie lifetime.
const DefaultMaxAge = 7 * 24 * time.Hour

// Tokens is the session pair issued by the backend.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// CookieOptions controls the session cookie attributes.
type CookieOptions struct {
	Name   string
	Domain string
	MaxAge time.Duration
	Secure bool
}

// Store keeps Tokens in one encrypted, http-only cookie.
type Store struct {
	cipher *Cipher
	opts   CookieOptions
}

// NewStore creates a Store. Zero-valued options fall back to defaults.
func NewStore(c *Cipher, opts CookieOptions) *Store {
	if opts.Name == "" {
		opts.Name = DefaultCookieName
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	return &Store{cipher: c, opts: opts}
}

// CookieName returns the configured cookie name.
func (s *Store) CookieName() string {
	return s.opts.Name
}

// Seal encrypts tokens into a cookie value.
func (s *Store) Seal(tokens Tokens) (string, error) {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("tokenstore: encode tokens: %w", err)
	}
	return s.cipher.Encrypt(string(raw))
}

// Open decrypts a cookie value back into tokens.
func (s *Store) Open(value string) (Tokens, error) {
	var tokens Tokens
	plain, err := s.cipher.Decrypt(value)
	if err != nil {
		return tokens, err
	}
	if err := json.Unmarshal([]byte(plain), &tokens); err != nil {
		return tokens, fmt.Errorf("tokenstore: decode tokens: %w", err)
	}
	if tokens.AccessToken == "" {
		return tokens, fmt.Errorf("tokenstore: %w", storefronterrors.ErrUnauthorized)
	}
	return tokens, nil
}

// Set writes the session cookie.
func (s *Store) Set(c *gin.Context, tokens Tokens) error {
	value, err := s.Seal(tokens)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(s.opts.Name, value, int(s.opts.MaxAge/time.Second), "/", s.opts.Domain, s.opts.Secure, true)
	return nil
}

// Get reads the session cookie. A missing, undecryptable or empty cookie is
// reported as storefronterrors.ErrUnauthorized.
func (s *Store) Get(c *gin.Context) (Tokens, error) {
	value, err := c.Cookie(s.opts.Name)
	if err != nil || value == "" {
		return Tokens{}, fmt.Errorf("tokenstore: no session: %w", storefronterrors.ErrUnauthorized)
	}
	tokens, err := s.Open(value)
	if err != nil {
		if errors.Is(err, storefronterrors.ErrUnauthorized) {
			return Tokens{}, err
		}
		return Tokens{}, fmt.Errorf("%w: %w", storefronterrors.ErrUnauthorized, err)
	}
	return tokens, nil
}

// Clear expires the session cookie.
func (s *Store) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(s.opts.Name, "", -1, "/", s.opts.Domain, s.opts.Secure, true)
}
