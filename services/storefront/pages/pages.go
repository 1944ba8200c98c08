// Package pages serves the server-rendered storefront. Form posts follow
// Post/Redirect/Get and report their outcome through flash toasts.
package pages

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quickbidz-storefront/internal/account"
	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/bidding"
	"quickbidz-storefront/internal/catalog"
	"quickbidz-storefront/internal/countdown"
	"quickbidz-storefront/internal/flash"
	"quickbidz-storefront/internal/notifyfeed"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/internal/tokenstore"
	"quickbidz-storefront/internal/upload"
	"quickbidz-storefront/services/storefront/helpers"
	"quickbidz-storefront/utils"

	"github.com/gin-gonic/gin"
)

// DefaultRedirect is where a login lands without a usable "from".
const DefaultRedirect = "/dashboard"

// PageDeps are the collaborators of the page handlers.
type PageDeps struct {
	Catalog       *catalog.Service
	Bids          *bidding.Service
	Accounts      *account.Service
	Uploader      *upload.Uploader
	Tokens        *tokenstore.Store
	Feed          *notifyfeed.Feed
	SecureCookies bool
	// Now defaults to time.Now.
	Now func() time.Time
	// TickInterval paces the countdown stream; zero means one second.
	TickInterval time.Duration
}

type PageHandler struct {
	catalog  *catalog.Service
	bids     *bidding.Service
	accounts *account.Service
	uploader *upload.Uploader
	tokens   *tokenstore.Store
	feed     *notifyfeed.Feed
	secure   bool
	now      func() time.Time
	tick     time.Duration
}

func NewPageHandler(deps PageDeps) *PageHandler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	tick := deps.TickInterval
	if tick <= 0 {
		tick = countdown.DefaultInterval
	}
	return &PageHandler{
		catalog:  deps.Catalog,
		bids:     deps.Bids,
		accounts: deps.Accounts,
		uploader: deps.Uploader,
		tokens:   deps.Tokens,
		feed:     deps.Feed,
		secure:   deps.SecureCookies,
		now:      now,
		tick:     tick,
	}
}

// View is the value every page template receives.
type View struct {
	Title    string
	Path     string
	SignedIn bool
	Toast    *flash.Toast
	Data     any
}

func (h *PageHandler) render(c *gin.Context, status int, name, title string, data any) {
	view := View{
		Title:    title,
		Path:     c.Request.URL.Path,
		SignedIn: helpers.AccessToken(c) != "",
		Data:     data,
	}
	if toast, ok := flash.Pop(c); ok {
		view.Toast = &toast
	}
	c.HTML(status, name, view)
}

// renderWithError renders a form page again with an error toast, keeping
// whatever the user typed.
func (h *PageHandler) renderWithError(c *gin.Context, status int, name, title string, data any, message string) {
	c.HTML(status, name, View{
		Title:    title,
		Path:     c.Request.URL.Path,
		SignedIn: helpers.AccessToken(c) != "",
		Toast:    &flash.Toast{Kind: flash.Error, Message: message},
		Data:     data,
	})
}

func (h *PageHandler) redirectWith(c *gin.Context, kind flash.Kind, message, target string) {
	flash.Set(c, flash.Toast{Kind: kind, Message: message}, h.secure)
	c.Redirect(http.StatusSeeOther, target)
}

// sessionExpired reports whether err means the session is no longer valid.
func sessionExpired(err error) bool {
	if !errors.Is(err, storefronterrors.ErrUnauthorized) {
		return false
	}
	status := backend.StatusOf(err)
	return status == 0 || status == http.StatusUnauthorized
}

// toLogin ends the session and sends the user to the login page, returning
// afterwards to from.
func (h *PageHandler) toLogin(c *gin.Context, from string) {
	h.tokens.Clear(c)
	h.redirectWith(c, flash.Error, helpers.ToastSessionExpired, LoginURL(from))
}

// failAction handles a failed form post: back to the page it came from with
// an error toast, or to login when the session is gone.
func (h *PageHandler) failAction(c *gin.Context, handlerName string, err error, back string) {
	utils.Warn(handlerName+": action failed", map[string]any{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	})
	if sessionExpired(err) {
		h.toLogin(c, back)
		return
	}
	h.redirectWith(c, flash.Error, helpers.ToastMessage(err), back)
}

// bindForm reads the posted form into obj. Fields that fail to parse stay
// at their zero value and the handler's own checks report them, so a bind
// error is logged and the request carries on.
func (h *PageHandler) bindForm(c *gin.Context, handlerName string, obj any) {
	if err := c.ShouldBind(obj); err != nil {
		helpers.LogBindError(c, handlerName, err)
	}
}

// failPage handles a page whose data could not be loaded.
func (h *PageHandler) failPage(c *gin.Context, handlerName string, err error) {
	if sessionExpired(err) {
		h.toLogin(c, c.Request.URL.RequestURI())
		return
	}
	status, _ := helpers.MapErrorToHTTP(err)
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	fields := map[string]any{"path": c.Request.URL.Path, "status": status, "error": err.Error()}
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": page failed", fields)
	} else {
		utils.Warn(handlerName+": page failed", fields)
	}
	h.renderWithError(c, status, "error.tmpl", "Something went wrong", errorView{Status: status}, helpers.ToastMessage(err))
}

type errorView struct {
	Status int
}

// NotFound renders the 404 page for unknown routes.
func (h *PageHandler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		utils.JSONMessage(c, http.StatusNotFound, helpers.ToastNotFound)
		return
	}
	h.renderWithError(c, http.StatusNotFound, "error.tmpl", "Page not found", errorView{Status: http.StatusNotFound}, helpers.ToastNotFound)
}

// LoginURL is the login page that returns to from after signing in.
func LoginURL(from string) string {
	if from == "" {
		return "/login"
	}
	return "/login?from=" + url.QueryEscape(from)
}

// SafeRedirect returns from when it is a same-site path, DefaultRedirect
// otherwise.
func SafeRedirect(from string) string {
	if strings.HasPrefix(from, "/") && !strings.HasPrefix(from, "//") {
		return from
	}
	return DefaultRedirect
}

// subject is the signed-in user's id from the access token, or "".
func subject(c *gin.Context) string {
	token := helpers.AccessToken(c)
	if token == "" {
		return ""
	}
	claims, err := tokenstore.ParseClaims(token)
	if err != nil {
		return ""
	}
	return claims.Subject
}
