package server

import (
	"net/http"
	"time"

	"quickbidz-storefront/internal/flash"
	"quickbidz-storefront/internal/tokenstore"
	"quickbidz-storefront/services/storefront/helpers"
	"quickbidz-storefront/services/storefront/pages"
	"quickbidz-storefront/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	expiredKey      = "storefront.session_expired"
)

// RequestIDMiddleware tags every request with an id, echoed in the response.
func RequestIDMiddleware(c *gin.Context) {
	id := utils.RequestID(c.GetHeader(requestIDHeader))
	c.Set(requestIDKey, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"request_id": c.GetString(requestIDKey),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
	}
	if len(c.Errors) > 0 {
		fields["errors"] = c.Errors.String()
	}
	utils.Info("HTTP Request", fields)
}

// SessionMiddleware opens the session cookie. A token whose exp has passed
// is dropped and its cookie cleared, so handlers only ever see live sessions.
func SessionMiddleware(store *tokenstore.Store, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokens, err := store.Get(c)
		if err != nil {
			c.Next()
			return
		}

		if claims, err := tokenstore.ParseClaims(tokens.AccessToken); err == nil && claims.Expired(now()) {
			utils.Debug("session expired", map[string]any{
				"request_id": c.GetString(requestIDKey),
				"subject":    claims.Subject,
			})
			store.Clear(c)
			c.Set(expiredKey, true)
			c.Next()
			return
		}

		helpers.SetSession(c, tokens)
		c.Next()
	}
}

// RequirePageSession sends anonymous visitors to the login page, returning
// them to the page they asked for afterwards.
func RequirePageSession(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if helpers.AccessToken(c) != "" {
			c.Next()
			return
		}

		toast := flash.Toast{Kind: flash.Info, Message: "Please login to continue."}
		if c.GetBool(expiredKey) {
			toast = flash.Toast{Kind: flash.Error, Message: helpers.ToastSessionExpired}
		}
		flash.Set(c, toast, secure)
		c.Redirect(http.StatusSeeOther, pages.LoginURL(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// RedirectSignedIn keeps signed-in users off the login and sign-up forms.
func RedirectSignedIn(c *gin.Context) {
	if helpers.AccessToken(c) == "" {
		c.Next()
		return
	}
	c.Redirect(http.StatusSeeOther, pages.DefaultRedirect)
	c.Abort()
}

// CORSMiddleware applies the cross-origin policy for the JSON API. Preflight
// requests are answered here and never reach a handler.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	policy := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, helpers.NextBidHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return func(c *gin.Context) {
		passed := false
		policy.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}
