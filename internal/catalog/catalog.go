// Package catalog reads and mutates auctions, bids, comments and
// notifications for the server-rendered pages. Shared reads go through the
// query cache; per-user reads never do.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/models"
	"quickbidz-storefront/internal/pagination"
	"quickbidz-storefront/internal/querycache"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/utils"
)

// Service is the page-facing view of the backend
type Service struct {
	api   backend.API
	cache *querycache.Cache
}

// NewService creates a catalog service. cache may be nil to disable caching.
func NewService(api backend.API, cache *querycache.Cache) *Service {
	return &Service{api: api, cache: cache}
}

// Fetch runs req through the query cache under key. A nil cache or empty key
// always calls the backend.
func (s *Service) Fetch(ctx context.Context, key string, req backend.Request) (*backend.Response, error) {
	if s.cache == nil || key == "" {
		return s.api.Do(ctx, req)
	}
	body, err := s.cache.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		resp, err := s.api.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	})
	if err != nil {
		return nil, err
	}
	return &backend.Response{Status: http.StatusOK, Body: body}, nil
}

// Invalidate drops cached reads under prefixes. Failures are logged only.
func (s *Service) Invalidate(ctx context.Context, prefixes ...string) {
	if s.cache == nil || len(prefixes) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, prefixes...); err != nil {
		utils.Warn("Failed to invalidate cached reads", map[string]any{
			"prefixes": prefixes,
			"error":    err.Error(),
		})
	}
}

// Auctions lists auctions with optional status and sellerId filters.
func (s *Service) Auctions(ctx context.Context, token string, filters url.Values, p pagination.Params) (backend.Page[models.Auction], error) {
	query := Pick(filters, "status", "sellerId")
	p.Apply(query)

	resp, err := s.Fetch(ctx, querycache.AuctionListKey(query), backend.Request{
		Method: http.MethodGet,
		Path:   "/auctions/getAll",
		Query:  query,
		Token:  token,
	})
	if err != nil {
		return backend.Page[models.Auction]{}, fmt.Errorf("catalog: list auctions: %w", err)
	}
	return backend.DecodePage[models.Auction](resp, "auctions")
}

// Search finds auctions matching term.
func (s *Service) Search(ctx context.Context, token, term string, p pagination.Params) (backend.Page[models.Auction], error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return backend.Page[models.Auction]{}, storefronterrors.Invalid("Search term is required")
	}
	query := url.Values{"term": {term}}
	p.Apply(query)

	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/auctions/search",
		Query:  query,
		Token:  token,
	})
	if err != nil {
		return backend.Page[models.Auction]{}, fmt.Errorf("catalog: search %q: %w", term, err)
	}
	return backend.DecodePage[models.Auction](resp, "auctions")
}

// Auction returns one auction with its status normalized.
func (s *Service) Auction(ctx context.Context, token, id string) (models.Auction, error) {
	resp, err := s.Fetch(ctx, querycache.AuctionDetailKey(id), backend.Request{
		Method: http.MethodGet,
		Path:   "/auctions/" + url.PathEscape(id),
		Token:  token,
	})
	if err != nil {
		return models.Auction{}, fmt.Errorf("catalog: get auction %s: %w", id, err)
	}
	auction, err := backend.DecodeJSON[models.Auction](resp)
	if err != nil {
		return models.Auction{}, fmt.Errorf("catalog: get auction %s: %w", id, err)
	}
	auction.Status = auction.Status.Normalize()
	return auction, nil
}

// AuctionBids is one page of an auction's bid history.
func (s *Service) AuctionBids(ctx context.Context, token, auctionID string, p pagination.Params) (backend.Page[models.Bid], error) {
	query := url.Values{}
	p.Apply(query)

	resp, err := s.Fetch(ctx, querycache.AuctionBidsKey(auctionID, p.Page, p.Limit), backend.Request{
		Method: http.MethodGet,
		Path:   "/bids/auction/" + url.PathEscape(auctionID),
		Query:  query,
		Token:  token,
	})
	if err != nil {
		return backend.Page[models.Bid]{}, fmt.Errorf("catalog: bids for auction %s: %w", auctionID, err)
	}
	return backend.DecodePage[models.Bid](resp, "bids")
}

// AuctionComments is one page of an auction's comments.
func (s *Service) AuctionComments(ctx context.Context, token, auctionID string, p pagination.Params) (backend.Page[models.Comment], error) {
	query := url.Values{}
	p.Apply(query)

	resp, err := s.Fetch(ctx, querycache.AuctionCommentsKey(auctionID, query), backend.Request{
		Method: http.MethodGet,
		Path:   "/comments/auction/" + url.PathEscape(auctionID),
		Query:  query,
		Token:  token,
	})
	if err != nil {
		return backend.Page[models.Comment]{}, fmt.Errorf("catalog: comments for auction %s: %w", auctionID, err)
	}
	return backend.DecodePage[models.Comment](resp, "comments")
}

// MyBids is one page of the signed-in user's bids.
func (s *Service) MyBids(ctx context.Context, token string, p pagination.Params) (backend.Page[models.Bid], error) {
	query := url.Values{}
	p.Apply(query)

	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/bids/my-bids",
		Query:  query,
		Token:  token,
	})
	if err != nil {
		return backend.Page[models.Bid]{}, fmt.Errorf("catalog: my bids: %w", err)
	}
	return backend.DecodePage[models.Bid](resp, "bids")
}

// MyNotifications is one page of the signed-in user's notifications. The
// only filter honoured is read.
func (s *Service) MyNotifications(ctx context.Context, token string, filters url.Values, p pagination.Params) (backend.Page[models.Notification], error) {
	query := Pick(filters, "read")
	p.Apply(query)

	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/notifications/my",
		Query:  query,
		Token:  token,
	})
	if err != nil {
		return backend.Page[models.Notification]{}, fmt.Errorf("catalog: my notifications: %w", err)
	}
	return backend.DecodePage[models.Notification](resp, "notifications")
}

// UnreadCount returns how many notifications are unread.
func (s *Service) UnreadCount(ctx context.Context, token string) (int, error) {
	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/notifications/unread-count",
		Token:  token,
	})
	if err != nil {
		return 0, fmt.Errorf("catalog: unread count: %w", err)
	}
	out, err := backend.DecodeJSON[struct {
		Count int `json:"count"`
	}](resp)
	if err != nil {
		return 0, fmt.Errorf("catalog: unread count: %w", err)
	}
	return out.Count, nil
}

// PostComment adds a question, or a reply when parentID is set.
func (s *Service) PostComment(ctx context.Context, token, auctionID, content, parentID string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, storefronterrors.Invalid("Comment cannot be empty")
	}
	body := map[string]any{"auctionId": auctionID, "content": content}
	if parentID != "" {
		body["parentId"] = parentID
	}

	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   "/comments",
		Body:   body,
		Token:  token,
	})
	if err != nil {
		return models.Comment{}, fmt.Errorf("catalog: comment on auction %s: %w", auctionID, err)
	}
	s.Invalidate(ctx, querycache.AuctionCommentsPrefix(auctionID))

	comment, err := backend.DecodeJSON[models.Comment](resp)
	if err != nil {
		return models.Comment{}, fmt.Errorf("catalog: comment on auction %s: %w", auctionID, err)
	}
	return comment, nil
}

// MarkNotificationRead marks one notification read.
func (s *Service) MarkNotificationRead(ctx context.Context, token, id string) error {
	if _, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodPatch,
		Path:   "/notifications/" + url.PathEscape(id) + "/mark-as-read",
		Token:  token,
	}); err != nil {
		return fmt.Errorf("catalog: mark notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, token string) error {
	if _, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodPatch,
		Path:   "/notifications/mark-all-as-read",
		Token:  token,
	}); err != nil {
		return fmt.Errorf("catalog: mark all notifications read: %w", err)
	}
	return nil
}

// SetAuctionState cancels or activates an auction owned by the user.
func (s *Service) SetAuctionState(ctx context.Context, token, id, action string) error {
	switch action {
	case "cancel", "activate":
	default:
		return fmt.Errorf("catalog: unknown auction action %q: %w", action, storefronterrors.ErrInvalidInput)
	}
	if _, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodPut,
		Path:   "/auctions/" + url.PathEscape(id) + "/" + action,
		Token:  token,
	}); err != nil {
		return fmt.Errorf("catalog: %s auction %s: %w", action, id, err)
	}
	s.Invalidate(ctx, querycache.AuctionDetailKey(id), querycache.PrefixAuctionLists)
	return nil
}

// Pick copies the listed keys of src that carry a non-empty value.
func Pick(src url.Values, keys ...string) url.Values {
	out := url.Values{}
	for _, k := range keys {
		if v := strings.TrimSpace(src.Get(k)); v != "" {
			out.Set(k, v)
		}
	}
	return out
}
