package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"quickbidz-storefront/internal/models"
	"quickbidz-storefront/internal/storefronterrors"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auctions/getAll":
			if r.Header.Get("Authorization") != "Bearer access-1" || r.URL.Query().Get("page") != "2" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"auctions":[{"id":"a1","title":"Lamp"}],"totalCount":11,"currentPage":2,"totalPages":2}`))
		case "/bids":
			body, _ := io.ReadAll(r.Body)
			var payload map[string]any
			if err := json.Unmarshal(body, &payload); err != nil || payload["auctionId"] != "a1" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"b1","amount":120,"auctionId":"a1"}`))
		case "/compressed":
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			_, _ = bw.Write([]byte(`{"count":3}`))
			_ = bw.Close()
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(buf.Bytes())
		case "/expired":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"jwt expired"}`))
		case "/invalid":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":["title should not be empty","startingPrice must be positive"]}`))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", 5*time.Second)
	ctx := context.Background()

	t.Run("list_with_token_and_query", func(t *testing.T) {
		resp, err := client.Do(ctx, Request{
			Path:  "/auctions/getAll",
			Query: url.Values{"page": {"2"}, "limit": {"10"}},
			Token: "access-1",
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status)

		page, err := DecodePage[models.Auction](resp, "auctions")
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		require.Equal(t, "Lamp", page.Items[0].Title)
		require.Equal(t, 11, page.TotalCount)
		require.Equal(t, 2, page.CurrentPage)
		require.Equal(t, 2, page.TotalPages)
	})

	t.Run("json_body", func(t *testing.T) {
		resp, err := client.Do(ctx, Request{
			Method: http.MethodPost,
			Path:   "bids",
			Body:   map[string]any{"auctionId": "a1", "amount": 120},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.Status)

		bid, err := DecodeJSON[models.Bid](resp)
		require.NoError(t, err)
		require.Equal(t, 120.0, bid.Amount)
	})

	t.Run("brotli_body", func(t *testing.T) {
		resp, err := client.Do(ctx, Request{Path: "/compressed"})
		require.NoError(t, err)
		require.JSONEq(t, `{"count":3}`, string(resp.Body))
	})

	t.Run("unauthorized", func(t *testing.T) {
		_, err := client.Do(ctx, Request{Path: "/expired"})
		require.Error(t, err)
		require.ErrorIs(t, err, storefronterrors.ErrUnauthorized)
		require.Equal(t, http.StatusUnauthorized, StatusOf(err))

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, "jwt expired", apiErr.Message)
	})

	t.Run("validation_messages_joined", func(t *testing.T) {
		_, err := client.Do(ctx, Request{Path: "/invalid"})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, "title should not be empty; startingPrice must be positive", apiErr.Message)
	})

	t.Run("not_found_without_json", func(t *testing.T) {
		_, err := client.Do(ctx, Request{Path: "/missing"})
		require.ErrorIs(t, err, storefronterrors.ErrNotFound)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Empty(t, apiErr.Message)
	})
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	_, err := NewClient(addr, time.Second).Do(context.Background(), Request{Path: "/auctions"})
	require.Error(t, err)
	require.ErrorIs(t, err, storefronterrors.ErrBackendUnavailable)
	require.Zero(t, StatusOf(err))
}

func TestDecodePage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantItems int
		wantPage  int
		wantPages int
		wantTotal int
	}{
		{name: "items_key", body: `{"items":[{"id":"1"},{"id":"2"}],"totalCount":2,"currentPage":1,"totalPages":1}`, wantItems: 2, wantPage: 1, wantPages: 1, wantTotal: 2},
		{name: "resource_key", body: `{"bids":[{"id":"1"}],"totalCount":31,"currentPage":3,"totalPages":4}`, wantItems: 1, wantPage: 3, wantPages: 4, wantTotal: 31},
		{name: "legacy_total_and_page", body: `{"bids":[],"total":0,"page":1,"limit":10,"totalPages":0}`, wantItems: 0, wantPage: 1, wantPages: 0, wantTotal: 0},
		{name: "no_paging_fields", body: `{"bids":[{"id":"1"},{"id":"2"},{"id":"3"}]}`, wantItems: 3, wantPage: 1, wantPages: 1, wantTotal: 3},
		{name: "empty_body", body: ``, wantItems: 0, wantPage: 0, wantPages: 0, wantTotal: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			page, err := DecodePage[models.Bid](&Response{Status: 200, Body: []byte(tc.body)}, "bids")
			require.NoError(t, err)
			require.Len(t, page.Items, tc.wantItems)
			require.Equal(t, tc.wantPage, page.CurrentPage)
			require.Equal(t, tc.wantPages, page.TotalPages)
			require.Equal(t, tc.wantTotal, page.TotalCount)
		})
	}

	_, err := DecodePage[models.Bid](&Response{Body: []byte(`[1,2]`)}, "bids")
	require.Error(t, err)
}
