package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONMessage sends a bare {message} body, the envelope every storefront
// route uses for errors and for acknowledgements without a payload.
func JSONMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"message": message,
	})
}

// JSONError sends the error envelope. err is only logged by callers and
// never leaks into the body.
func JSONError(c *gin.Context, status int, err error, message string) {
	if err != nil {
		_ = c.Error(err)
	}
	JSONMessage(c, status, message)
}

// RawJSON writes an already-encoded JSON payload, typically a backend
// response body passed through untouched.
func RawJSON(c *gin.Context, status int, body []byte) {
	if len(body) == 0 {
		c.Status(status)
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}
