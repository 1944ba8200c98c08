package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieName carries one toast across a redirect.
const CookieName = "qb_flash"

// Kind is the toast style.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Toast is a one-shot message shown on the next rendered page.
type Toast struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Set stores toast for the next request. secure mirrors the session cookie.
func Set(c *gin.Context, toast Toast, secure bool) {
	raw, err := json.Marshal(toast)
	if err != nil {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Successf and Errorf are shorthands for Set.
func Successf(c *gin.Context, message string, secure bool) {
	Set(c, Toast{Kind: Success, Message: message}, secure)
}

func Errorf(c *gin.Context, message string, secure bool) {
	Set(c, Toast{Kind: Error, Message: message}, secure)
}

// Pop returns the pending toast, if any, and clears it.
func Pop(c *gin.Context) (Toast, bool) {
	cookie, err := c.Request.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Toast{}, false
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return Toast{}, false
	}
	var toast Toast
	if err := json.Unmarshal(raw, &toast); err != nil || toast.Message == "" {
		return Toast{}, false
	}
	return toast, true
}
