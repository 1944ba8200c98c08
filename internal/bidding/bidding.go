package bidding

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/models"
	"quickbidz-storefront/internal/querycache"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/utils"
)

// DefaultIncrement is used when an auction has no usable bid increment.
const DefaultIncrement = 10.0

// Increment returns increment, or DefaultIncrement when it is missing or not positive.
func Increment(increment float64) float64 {
	if increment <= 0 || math.IsNaN(increment) || math.IsInf(increment, 0) {
		return DefaultIncrement
	}
	return increment
}

// Validate checks a proposed amount against the current price
func Validate(amount, currentPrice float64) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount <= currentPrice {
		return fmt.Errorf("bidding: %w - current price is %.2f", storefronterrors.ErrBidTooLow, currentPrice)
	}
	return nil
}

// NextSuggestion is the amount offered after a bid of amount went through.
func NextSuggestion(amount, increment float64) float64 {
	return amount + Increment(increment)
}

// DefaultBid is the first amount suggested on an auction page.
func DefaultBid(currentPrice, increment float64) float64 {
	return currentPrice + Increment(increment)
}

func validateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("bidding: %w - amount is not a number", storefronterrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return fmt.Errorf("bidding: %w - non-positive bid amount", storefronterrors.ErrInvalidBid)
	}
	return nil
}

// Request is one bid submission. CurrentPrice is optional for API callers;
// when set, the price check runs before the backend is contacted.
type Request struct {
	AuctionID    string
	Amount       float64
	CurrentPrice *float64
	Increment    float64
}

// Result is the created bid together with the next amount to suggest.
type Result struct {
	Bid            models.Bid
	Raw            []byte
	NextSuggestion float64
}

// Service submits bids to the backend
type Service struct {
	api   backend.API
	cache querycache.Invalidator
}

// NewService creates a bidding service. cache may be nil.
func NewService(api backend.API, cache querycache.Invalidator) *Service {
	return &Service{
		api:   api,
		cache: cache,
	}
}

// PlaceBid validates and submits a bid. Invalid bids never reach the backend.
func (s *Service) PlaceBid(ctx context.Context, token string, req Request) (Result, error) {
	if err := s.validate(req); err != nil {
		return Result{}, err
	}

	resp, err := s.api.Do(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   "/bids",
		Token:  token,
		Body: map[string]any{
			"auctionId": req.AuctionID,
			"amount":    req.Amount,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("bidding: place bid on auction %s: %w", req.AuctionID, err)
	}

	bid, err := decodeBid(resp)
	if err != nil {
		return Result{}, fmt.Errorf("bidding: place bid on auction %s: %w", req.AuctionID, err)
	}
	if bid.Amount == 0 {
		bid.Amount = req.Amount
	}
	if bid.AuctionID == "" {
		bid.AuctionID = req.AuctionID
	}

	s.invalidate(ctx, req.AuctionID)

	return Result{
		Bid:            bid,
		Raw:            resp.Body,
		NextSuggestion: NextSuggestion(bid.Amount, req.Increment),
	}, nil
}

// bidEnvelope matches the wrapped shapes the backend answers POST /bids with.
type bidEnvelope struct {
	Bid  *models.Bid `json:"bid"`
	Data *struct {
		Bid *models.Bid `json:"bid"`
	} `json:"data"`
}

// decodeBid reads the created bid from a bare object, {"bid":{...}} or
// {"data":{"bid":{...}}}.
func decodeBid(resp *backend.Response) (models.Bid, error) {
	env, err := backend.DecodeJSON[bidEnvelope](resp)
	if err != nil {
		return models.Bid{}, err
	}
	switch {
	case env.Bid != nil:
		return *env.Bid, nil
	case env.Data != nil && env.Data.Bid != nil:
		return *env.Data.Bid, nil
	}
	return backend.DecodeJSON[models.Bid](resp)
}

func (s *Service) validate(req Request) error {
	if strings.TrimSpace(req.AuctionID) == "" {
		return fmt.Errorf("bidding: %w - missing auction id", storefronterrors.ErrInvalidBid)
	}
	if req.CurrentPrice != nil {
		return Validate(req.Amount, *req.CurrentPrice)
	}
	return validateAmount(req.Amount)
}

// invalidate drops the reads a new bid makes stale. Failures are logged only;
// the bid itself already succeeded.
func (s *Service) invalidate(ctx context.Context, auctionID string) {
	if s.cache == nil {
		return
	}
	err := s.cache.Invalidate(ctx,
		querycache.AuctionDetailKey(auctionID),
		querycache.AuctionBidsPrefix(auctionID),
		querycache.PrefixAuctionLists,
	)
	if err != nil {
		utils.Warn("Failed to invalidate cached auction after bid", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}
}
