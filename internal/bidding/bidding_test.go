package bidding

import (
	"context"
	"math"
	"net/http"
	"testing"
	"time"

	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/querycache"
	"quickbidz-storefront/internal/storefronterrors"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 { return &v }

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		amount        float64
		currentPrice  float64
		expectedError error
	}{
		{name: "above_current", amount: 110, currentPrice: 100},
		{name: "one_cent_above", amount: 100.01, currentPrice: 100},
		{name: "equal_to_current", amount: 100, currentPrice: 100, expectedError: storefronterrors.ErrBidTooLow},
		{name: "below_current", amount: 90, currentPrice: 100, expectedError: storefronterrors.ErrBidTooLow},
		{name: "zero", amount: 0, currentPrice: 0, expectedError: storefronterrors.ErrInvalidBid},
		{name: "negative", amount: -5, currentPrice: 0, expectedError: storefronterrors.ErrInvalidBid},
		{name: "nan", amount: math.NaN(), currentPrice: 0, expectedError: storefronterrors.ErrInvalidBid},
		{name: "inf", amount: math.Inf(1), currentPrice: 0, expectedError: storefronterrors.ErrInvalidBid},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tc.amount, tc.currentPrice)
			if tc.expectedError == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.expectedError)
		})
	}
}

func TestSuggestions(t *testing.T) {
	t.Parallel()

	require.Equal(t, 160.0, NextSuggestion(150, 10))
	require.Equal(t, 155.0, NextSuggestion(150, 5))
	require.Equal(t, 160.0, NextSuggestion(150, 0), "missing increment defaults to 10")
	require.Equal(t, 160.0, NextSuggestion(150, -3))
	require.Equal(t, 125.0, DefaultBid(100, 25))
	require.Equal(t, 110.0, DefaultBid(100, 0))
}

func TestService_PlaceBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := backend.NewMockAPI(ctrl)
	store := querycache.NewMemoryStore()
	service := NewService(mockAPI, querycache.New(store, time.Minute))

	// Table-driven test cases
	tests := []struct {
		name           string
		req            Request
		mockSetup      func()
		expectedError  error
		expectedStatus int
		expectedNext   float64
		expectedID     string
	}{
		{
			name: "valid_bid",
			req:  Request{AuctionID: "a1", Amount: 150, CurrentPrice: price(100), Increment: 5},
			mockSetup: func() {
				mockAPI.EXPECT().
					Do(gomock.Any(), backend.Request{
						Method: http.MethodPost,
						Path:   "/bids",
						Token:  "token-1",
						Body:   map[string]any{"auctionId": "a1", "amount": 150.0},
					}).
					Return(backend.JSONResponse(http.StatusCreated, `{"id":"b1","amount":150,"auctionId":"a1"}`), nil)
			},
			expectedNext: 155,
			expectedID:   "b1",
		},
		{
			name: "bid_envelope",
			req:  Request{AuctionID: "a1", Amount: 150, CurrentPrice: price(100), Increment: 10},
			mockSetup: func() {
				mockAPI.EXPECT().Do(gomock.Any(), backend.MatchRequest(http.MethodPost, "/bids")).
					Return(backend.JSONResponse(http.StatusCreated, `{"bid":{"id":"b3","amount":150,"auctionId":"a1"}}`), nil)
			},
			expectedNext: 160,
			expectedID:   "b3",
		},
		{
			name: "data_bid_envelope",
			req:  Request{AuctionID: "a1", Amount: 150, CurrentPrice: price(100)},
			mockSetup: func() {
				mockAPI.EXPECT().Do(gomock.Any(), backend.MatchRequest(http.MethodPost, "/bids")).
					Return(backend.JSONResponse(http.StatusCreated, `{"data":{"bid":{"id":"b4","amount":150}}}`), nil)
			},
			expectedNext: 160,
			expectedID:   "b4",
		},
		{
			name: "valid_without_current_price",
			req:  Request{AuctionID: "a1", Amount: 20},
			mockSetup: func() {
				mockAPI.EXPECT().Do(gomock.Any(), backend.MatchRequest(http.MethodPost, "/bids")).
					Return(backend.JSONResponse(http.StatusCreated, `{"id":"b2","auctionId":"a1"}`), nil)
			},
			expectedNext: 30,
			expectedID:   "b2",
		},
		{
			name:          "equal_to_current_price",
			req:           Request{AuctionID: "a1", Amount: 100, CurrentPrice: price(100)},
			mockSetup:     func() {},
			expectedError: storefronterrors.ErrBidTooLow,
		},
		{
			name:          "below_current_price",
			req:           Request{AuctionID: "a1", Amount: 50, CurrentPrice: price(100)},
			mockSetup:     func() {},
			expectedError: storefronterrors.ErrBidTooLow,
		},
		{
			name:          "missing_auction",
			req:           Request{Amount: 50},
			mockSetup:     func() {},
			expectedError: storefronterrors.ErrInvalidBid,
		},
		{
			name:          "zero_amount",
			req:           Request{AuctionID: "a1", Amount: 0},
			mockSetup:     func() {},
			expectedError: storefronterrors.ErrInvalidBid,
		},
		{
			name: "backend_rejects",
			req:  Request{AuctionID: "a1", Amount: 150, CurrentPrice: price(100)},
			mockSetup: func() {
				mockAPI.EXPECT().Do(gomock.Any(), backend.MatchRequest(http.MethodPost, "/bids")).
					Return(nil, backend.NewAPIError(http.StatusBadRequest, []byte(`{"message":"Auction is not active"}`)))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "session_expired",
			req:  Request{AuctionID: "a1", Amount: 150},
			mockSetup: func() {
				mockAPI.EXPECT().Do(gomock.Any(), backend.MatchRequest(http.MethodPost, "/bids")).
					Return(nil, backend.NewAPIError(http.StatusUnauthorized, nil))
			},
			expectedError:  storefronterrors.ErrUnauthorized,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			result, err := service.PlaceBid(context.Background(), "token-1", tc.req)

			if tc.expectedError != nil || tc.expectedStatus != 0 {
				require.Error(t, err)
				if tc.expectedError != nil {
					require.ErrorIs(t, err, tc.expectedError)
				}
				if tc.expectedStatus != 0 {
					require.Equal(t, tc.expectedStatus, backend.StatusOf(err))
				}
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.req.AuctionID, result.Bid.AuctionID)
			require.Equal(t, tc.req.Amount, result.Bid.Amount)
			require.Equal(t, tc.expectedNext, result.NextSuggestion)
			require.Equal(t, tc.expectedID, result.Bid.ID)
			require.NotEmpty(t, result.Raw)
		})
	}
}

func TestService_PlaceBidInvalidatesAuctionReads(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockAPI := backend.NewMockAPI(ctrl)
	store := querycache.NewMemoryStore()
	service := NewService(mockAPI, querycache.New(store, time.Minute))

	for _, key := range []string{
		querycache.AuctionDetailKey("a1"),
		querycache.AuctionBidsKey("a1", 1, 10),
		querycache.AuctionListKey(nil),
		querycache.AuctionDetailKey("other"),
	} {
		require.NoError(t, store.Set(ctx, key, []byte("{}"), time.Minute))
	}

	mockAPI.EXPECT().Do(gomock.Any(), backend.MatchRequest(http.MethodPost, "/bids")).
		Return(backend.JSONResponse(http.StatusCreated, `{"id":"b1","amount":150,"auctionId":"a1"}`), nil)

	_, err := service.PlaceBid(ctx, "token-1", Request{AuctionID: "a1", Amount: 150})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	_, ok, _ := store.Get(ctx, querycache.AuctionDetailKey("other"))
	require.True(t, ok)
}
