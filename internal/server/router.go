package server

import (
	"html/template"
	"net/http"
	"time"

	"quickbidz-storefront/internal/tokenstore"
	"quickbidz-storefront/services/storefront/handler"
	"quickbidz-storefront/services/storefront/pages"

	"github.com/gin-gonic/gin"
)

// RouterDeps are the handlers and settings the router mounts.
type RouterDeps struct {
	API           *handler.APIHandler
	Pages         *pages.PageHandler
	Tokens        *tokenstore.Store
	Templates     *template.Template
	CORSOrigins   []string
	SecureCookies bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps RouterDeps) *gin.Engine {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery()) // recover from panics
	router.Use(RequestIDMiddleware)
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(SessionMiddleware(deps.Tokens, now))

	router.SetHTMLTemplate(deps.Templates)
	router.StaticFS("/static", http.FS(pages.Assets()))

	api := router.Group("/api", CORSMiddleware(deps.CORSOrigins))
	deps.API.RegisterRoutes(api)
	// Preflights are answered by the CORS middleware; this only gives them a route.
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	deps.Pages.RegisterRoutes(router, RequirePageSession(deps.SecureCookies), RedirectSignedIn)
	router.NoRoute(deps.Pages.NotFound)

	return router
}
