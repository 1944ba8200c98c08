package handler

import (
	"net/http"
	"strconv"

	"quickbidz-storefront/internal/bidding"
	"quickbidz-storefront/services/storefront/helpers"
	"quickbidz-storefront/utils"

	"github.com/gin-gonic/gin"
)

// PlaceBidHandler handles POST /api/bids. When the caller sends the
// currentPrice it saw, a bid at or below it is refused without calling the
// backend. The backend body is passed through and the next suggested amount
// goes in the X-Next-Bid header.
func (h *APIHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	result, err := h.bids.PlaceBid(c.Request.Context(), helpers.AccessToken(c), bidding.Request{
		AuctionID:    req.AuctionID,
		Amount:       req.Amount,
		CurrentPrice: req.CurrentPrice,
		Increment:    req.Increment,
	})
	if err != nil {
		h.fail(c, "PlaceBidHandler", err, "Failed to place bid")
		return
	}

	c.Header(helpers.NextBidHeader, strconv.FormatFloat(result.NextSuggestion, 'f', -1, 64))
	utils.RawJSON(c, http.StatusCreated, result.Raw)
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":          result.Bid.ID,
		"auction_id":      req.AuctionID,
		"amount":          result.Bid.Amount,
		"next_suggestion": result.NextSuggestion,
	})
}
