package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"quickbidz-storefront/internal/account"
	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/bidding"
	"quickbidz-storefront/internal/catalog"
	"quickbidz-storefront/internal/config"
	"quickbidz-storefront/internal/notifyfeed"
	"quickbidz-storefront/internal/querycache"
	"quickbidz-storefront/internal/server"
	"quickbidz-storefront/internal/tokenstore"
	"quickbidz-storefront/internal/upload"
	"quickbidz-storefront/services/storefront/handler"
	"quickbidz-storefront/services/storefront/pages"
	"quickbidz-storefront/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{EnvFiles: envFiles, ConfigFile: configFile})
	if err != nil {
		return err
	}
	if logLevel == "" {
		if err := utils.SetLevel(cfg.LogLevel); err != nil {
			return err
		}
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore, err := newCacheStore(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeStore()

	cipher, err := tokenstore.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return err
	}
	tokens := tokenstore.NewStore(cipher, tokenstore.CookieOptions{
		Name:   cfg.Cookie.Name,
		Domain: cfg.Cookie.Domain,
		MaxAge: cfg.Cookie.MaxAge,
		Secure: cfg.Production(),
	})

	api := backend.NewClient(cfg.APIBaseURL, cfg.BackendTimeout)
	cache := querycache.New(store, cfg.Cache.TTL)
	catalogSvc := catalog.NewService(api, cache)
	bidSvc := bidding.NewService(api, cache)
	accountSvc := account.NewService(api)
	uploader := upload.NewUploader(api, upload.DefaultOptions())
	feed := notifyfeed.NewFeed(api, cfg.NotifyPollInterval, allowOrigins(cfg.CORSAllowedOrigins))
	defer feed.Shutdown()

	tmpl, err := pages.Templates(time.Now)
	if err != nil {
		return fmt.Errorf("parse page templates: %w", err)
	}

	router := server.SetupRouter(server.RouterDeps{
		API: handler.NewAPIHandler(handler.APIDeps{
			Gateway:  catalogSvc,
			Bids:     bidSvc,
			Accounts: accountSvc,
			Uploader: uploader,
			Tokens:   tokens,
		}),
		Pages: pages.NewPageHandler(pages.PageDeps{
			Catalog:       catalogSvc,
			Bids:          bidSvc,
			Accounts:      accountSvc,
			Uploader:      uploader,
			Tokens:        tokens,
			Feed:          feed,
			SecureCookies: cfg.Production(),
		}),
		Tokens:        tokens,
		Templates:     tmpl,
		CORSOrigins:   cfg.CORSAllowedOrigins,
		SecureCookies: cfg.Production(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Info("Starting storefront", map[string]any{
			"addr":    cfg.Addr(),
			"env":     cfg.Env,
			"backend": cfg.APIBaseURL,
			"cache":   cfg.Cache.Backend,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
		}
		return nil
	case <-ctx.Done():
	}

	utils.Info("Shutting down storefront", nil)
	feed.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newCacheStore builds the configured query cache store and its cleanup.
func newCacheStore(ctx context.Context, cfg config.CacheConfig) (querycache.Store, func(), error) {
	if cfg.Backend != config.CacheRedis {
		return querycache.NewMemoryStore(), func() {}, nil
	}

	client, err := querycache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	closeClient := func() {
		if err := client.Close(); err != nil {
			utils.Warn("Failed to close redis client", map[string]any{"error": err.Error()})
		}
	}
	return querycache.NewRedisStore(client, ""), closeClient, nil
}

// allowOrigins accepts same-origin WebSocket upgrades plus the configured
// CORS origins.
func allowOrigins(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host || allowed[origin]
	}
}
