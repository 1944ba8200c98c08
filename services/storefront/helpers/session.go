package helpers

import (
	"quickbidz-storefront/internal/tokenstore"

	"github.com/gin-gonic/gin"
)

const sessionKey = "storefront.session"

// SetSession stores the request's decrypted tokens on the gin context.
func SetSession(c *gin.Context, tokens tokenstore.Tokens) {
	c.Set(sessionKey, tokens)
}

// Session returns the tokens set by the session middleware, if any.
func Session(c *gin.Context) (tokenstore.Tokens, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return tokenstore.Tokens{}, false
	}
	tokens, ok := v.(tokenstore.Tokens)
	if !ok || tokens.AccessToken == "" {
		return tokenstore.Tokens{}, false
	}
	return tokens, true
}

// AccessToken is the bearer token for backend calls, or "" when signed out.
func AccessToken(c *gin.Context) string {
	tokens, _ := Session(c)
	return tokens.AccessToken
}
