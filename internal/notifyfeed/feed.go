package notifyfeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/utils"

	"github.com/gorilla/websocket"
)

// DefaultPollInterval matches how often the unread badge refreshes.
const DefaultPollInterval = time.Minute

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Update is the message pushed to the browser.
type Update struct {
	Count int `json:"count"`
}

// Feed pushes the signed-in user's unread notification count over a
// WebSocket, polling the backend on an interval per connection.
type Feed struct {
	api      backend.API
	interval time.Duration
	upgrader websocket.Upgrader

	closeOnce sync.Once
	done      chan struct{}
}

// NewFeed creates a feed. checkOrigin may be nil to require same-origin.
func NewFeed(api backend.API, interval time.Duration, checkOrigin func(*http.Request) bool) *Feed {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Feed{
		api:      api,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		done: make(chan struct{}),
	}
}

// Shutdown ends every open feed. Hijacked connections are not covered by
// http.Server.Shutdown.
func (f *Feed) Shutdown() {
	f.closeOnce.Do(func() { close(f.done) })
}

// Serve upgrades the request and runs the feed until the client goes away,
// ctx ends, the feed shuts down, or the backend rejects the token.
func (f *Feed) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, token string) error {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("notifyfeed: upgrade: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		readPump(conn)
	}()
	defer func() {
		conn.Close()
		wg.Wait()
	}()

	poll := time.NewTicker(f.interval)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	last := -1
	for {
		count, err := f.unreadCount(ctx, token)
		switch {
		case errors.Is(err, storefronterrors.ErrUnauthorized):
			closeWith(conn, websocket.ClosePolicyViolation, "session expired")
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			utils.Warn("Unread count poll failed", map[string]any{"error": err.Error()})
		case count != last:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Update{Count: count}); err != nil {
				return nil
			}
			last = count
		}

		if !f.waitForPoll(ctx, conn, poll.C, ping.C) {
			return nil
		}
	}
}

// waitForPoll keeps the connection alive with pings until the next poll is
// due. It reports false when the feed should stop.
func (f *Feed) waitForPoll(ctx context.Context, conn *websocket.Conn, poll, ping <-chan time.Time) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-f.done:
			closeWith(conn, websocket.CloseGoingAway, "server shutting down")
			return false
		case <-ping:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return false
			}
		case <-poll:
			return true
		}
	}
}

func (f *Feed) unreadCount(ctx context.Context, token string) (int, error) {
	resp, err := f.api.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/notifications/unread-count",
		Token:  token,
	})
	if err != nil {
		return 0, fmt.Errorf("notifyfeed: unread count: %w", err)
	}
	update, err := backend.DecodeJSON[Update](resp)
	if err != nil {
		return 0, fmt.Errorf("notifyfeed: unread count: %w", err)
	}
	return update.Count, nil
}

// readPump drains client frames so control messages are processed, and
// returns once the connection fails or closes.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				utils.Debug("Notification feed read error", map[string]any{"error": err.Error()})
			}
			return
		}
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}
