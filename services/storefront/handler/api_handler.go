package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"quickbidz-storefront/internal/account"
	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/bidding"
	"quickbidz-storefront/internal/catalog"
	"quickbidz-storefront/internal/models"
	"quickbidz-storefront/internal/pagination"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/internal/tokenstore"
	"quickbidz-storefront/internal/upload"
	"quickbidz-storefront/services/storefront/helpers"
	"quickbidz-storefront/utils"

	"github.com/gin-gonic/gin"
)

// Gateway is the backend as seen through the query cache.
type Gateway interface {
	Fetch(ctx context.Context, key string, req backend.Request) (*backend.Response, error)
	Invalidate(ctx context.Context, prefixes ...string)
}

type BidServiceInterface interface {
	PlaceBid(ctx context.Context, token string, req bidding.Request) (bidding.Result, error)
}

type AccountServiceInterface interface {
	Login(ctx context.Context, creds account.Credentials) (account.Session, error)
	Register(ctx context.Context, reg account.Registration) (*backend.Response, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (models.User, *backend.Response, error)
	UpdateProfile(ctx context.Context, token string, update account.ProfileUpdate) (*backend.Response, error)
	Forward(ctx context.Context, action string, body any) (*backend.Response, error)
}

type UploaderInterface interface {
	Upload(ctx context.Context, token string, files []upload.File, fields url.Values, opts upload.Options) (upload.Result, error)
}

var (
	_ Gateway                 = (*catalog.Service)(nil)
	_ BidServiceInterface     = (*bidding.Service)(nil)
	_ AccountServiceInterface = (*account.Service)(nil)
	_ UploaderInterface       = (*upload.Uploader)(nil)
)

// APIDeps are the collaborators of the /api handlers.
type APIDeps struct {
	Gateway  Gateway
	Bids     BidServiceInterface
	Accounts AccountServiceInterface
	Uploader UploaderInterface
	Tokens   *tokenstore.Store
}

type APIHandler struct {
	gateway  Gateway
	bids     BidServiceInterface
	accounts AccountServiceInterface
	uploader UploaderInterface
	tokens   *tokenstore.Store
}

func NewAPIHandler(deps APIDeps) *APIHandler {
	return &APIHandler{
		gateway:  deps.Gateway,
		bids:     deps.Bids,
		accounts: deps.Accounts,
		uploader: deps.Uploader,
		tokens:   deps.Tokens,
	}
}

// Route describes one pass-through /api endpoint.
type Route struct {
	Name   string
	Method string
	// Path builds the backend path from the request.
	Path func(c *gin.Context) string
	// Filters are the query keys forwarded when present.
	Filters  []string
	Paginate bool
	// Status overrides the backend's success status.
	Status int
	// Message replaces the success body with {message}.
	Message string
	// Fallback is the error message used when the backend gives none.
	Fallback string
	Validate func(c *gin.Context) error
	// CacheKey marks a shared read; "" skips the cache.
	CacheKey func(c *gin.Context, query url.Values) string
	// Invalidate lists the cache prefixes a successful call makes stale.
	Invalidate func(c *gin.Context) []string
}

// Forward returns the gin handler for route.
func (h *APIHandler) Forward(route Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		if route.Validate != nil {
			if err := route.Validate(c); err != nil {
				h.fail(c, route.Name, err, route.Fallback)
				return
			}
		}

		incoming := c.Request.URL.Query()
		query := catalog.Pick(incoming, route.Filters...)
		if route.Paginate {
			pagination.ParseParams(incoming).Apply(query)
		}
		if len(query) == 0 {
			query = nil
		}

		req := backend.Request{
			Method: route.Method,
			Path:   route.Path(c),
			Query:  query,
			Token:  helpers.AccessToken(c),
		}
		if carriesBody(route.Method) {
			raw, err := c.GetRawData()
			if err != nil {
				helpers.HandleBindError(c, route.Name, err)
				return
			}
			if raw = bytes.TrimSpace(raw); len(raw) > 0 {
				if !json.Valid(raw) {
					helpers.HandleBindError(c, route.Name, errors.New("body is not valid JSON"))
					return
				}
				req.RawBody = raw
				req.ContentType = "application/json"
			}
		}

		key := ""
		if route.CacheKey != nil {
			key = route.CacheKey(c, query)
		}

		resp, err := h.gateway.Fetch(c.Request.Context(), key, req)
		if err != nil {
			h.fail(c, route.Name, err, route.Fallback)
			return
		}
		if route.Invalidate != nil {
			h.gateway.Invalidate(c.Request.Context(), route.Invalidate(c)...)
		}

		status := resp.Status
		if route.Status != 0 {
			status = route.Status
		}
		if route.Message != "" {
			utils.JSONMessage(c, status, route.Message)
		} else {
			utils.RawJSON(c, status, resp.Body)
		}
		helpers.LogSuccess(route.Name, "request forwarded", map[string]any{
			"method": req.Method,
			"path":   req.Path,
			"status": status,
			"cached": key != "",
		})
	}
}

// fail writes the error envelope. A backend 401 also ends the session.
func (h *APIHandler) fail(c *gin.Context, handlerName string, err error, fallback string) {
	if backend.StatusOf(err) == http.StatusUnauthorized && h.tokens != nil {
		h.tokens.Clear(c)
	}
	helpers.RespondError(c, handlerName, err, fallback)
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// static is a Path for a fixed backend path.
func static(path string) func(*gin.Context) string {
	return func(*gin.Context) string { return path }
}

// withParam is a Path of prefix + escaped param + suffix.
func withParam(prefix, param, suffix string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		return prefix + url.PathEscape(c.Param(param)) + suffix
	}
}

// requireQuery rejects requests whose key is blank.
func requireQuery(key, message string) func(*gin.Context) error {
	return func(c *gin.Context) error {
		if strings.TrimSpace(c.Query(key)) == "" {
			return storefronterrors.Invalid(message)
		}
		return nil
	}
}

func prefixes(p ...string) func(*gin.Context) []string {
	return func(*gin.Context) []string { return p }
}
