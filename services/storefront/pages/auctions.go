package pages

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/bidding"
	"quickbidz-storefront/internal/countdown"
	"quickbidz-storefront/internal/flash"
	"quickbidz-storefront/internal/models"
	"quickbidz-storefront/internal/pagination"
	"quickbidz-storefront/internal/querycache"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/internal/upload"
	"quickbidz-storefront/services/storefront/helpers"
	"quickbidz-storefront/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// commentsPerPage is how many comments the detail page loads at once.
const commentsPerPage = 50

// auctionStatuses are the filters offered on the listing page.
var auctionStatuses = []models.AuctionStatus{
	models.AuctionActive,
	models.AuctionPending,
	models.AuctionCompleted,
	models.AuctionCancelled,
}

type auctionsView struct {
	Auctions []models.Auction
	Status   string
	Statuses []models.AuctionStatus
	Pager    pagination.State
	Query    template.URL
}

// Auctions lists auctions, optionally filtered by status or a search term.
func (h *PageHandler) Auctions(c *gin.Context) {
	params := pagination.ParseParams(c.Request.URL.Query())
	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	term := strings.TrimSpace(c.Query("q"))

	var (
		page backend.Page[models.Auction]
		err  error
	)
	if term != "" {
		page, err = h.catalog.Search(c.Request.Context(), helpers.AccessToken(c), term, params)
	} else {
		page, err = h.catalog.Auctions(c.Request.Context(), helpers.AccessToken(c), url.Values{"status": {status}}, params)
	}
	if err != nil {
		h.failPage(c, "Auctions", err)
		return
	}

	extra := url.Values{}
	if status != "" {
		extra.Set("status", status)
	}
	if term != "" {
		extra.Set("q", term)
	}
	h.render(c, http.StatusOK, "auctions.tmpl", "Auctions", auctionsView{
		Auctions: page.Items,
		Status:   status,
		Statuses: auctionStatuses,
		Pager:    pagination.Controls(params.Page, page.TotalPages),
		Query:    template.URL(extra.Encode()),
	})
}

type auctionView struct {
	Auction    models.Auction
	Countdown  string
	Ended      bool
	Price      float64
	Increment  float64
	DefaultBid float64
	Bids       []models.Bid
	BidPager   pagination.State
	Threads    []models.Thread
	IsOwner    bool
	CanBid     bool
}

// AuctionDetail shows one auction with its countdown, bid history and
// comment threads. The three reads run concurrently.
func (h *PageHandler) AuctionDetail(c *gin.Context) {
	id := c.Param("id")
	token := helpers.AccessToken(c)
	bidParams := pagination.Params{
		Page:  pagination.ParseParams(url.Values{"page": {c.Query("bidsPage")}}).Page,
		Limit: pagination.DefaultLimit,
	}

	var (
		auction  models.Auction
		bids     backend.Page[models.Bid]
		comments backend.Page[models.Comment]
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		auction, err = h.catalog.Auction(ctx, token, id)
		return err
	})
	g.Go(func() error {
		var err error
		bids, err = h.catalog.AuctionBids(ctx, token, id, bidParams)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = h.catalog.AuctionComments(ctx, token, id, pagination.Params{Page: 1, Limit: commentsPerPage})
		return err
	})
	if err := g.Wait(); err != nil {
		h.failPage(c, "AuctionDetail", err)
		return
	}

	// Before the first bid some backends report a zero current price.
	price := auction.CurrentPrice
	if price <= 0 {
		price = auction.StartingPrice
	}
	label := countdown.RemainingFromString(auction.EndTime, h.now())
	view := auctionView{
		Auction:    auction,
		Countdown:  label,
		Ended:      countdown.IsEnded(label),
		Price:      price,
		Increment:  bidding.Increment(auction.Increment()),
		DefaultBid: bidding.DefaultBid(price, auction.Increment()),
		Bids:       bids.Items,
		BidPager:   pagination.Controls(bidParams.Page, bids.TotalPages),
		Threads:    models.Threads(comments.Items),
		IsOwner:    auction.SellerID != "" && auction.SellerID == subject(c),
	}
	view.CanBid = auction.Status == models.AuctionActive && !view.Ended && !view.IsOwner

	// A rejected bid comes back with the amount the user typed.
	if raw := c.Query("bid"); raw != "" {
		if amount, err := strconv.ParseFloat(raw, 64); err == nil && amount > 0 {
			view.DefaultBid = amount
		}
	}

	h.render(c, http.StatusOK, "auction_detail.tmpl", auction.Title, view)
}

// PlaceBid handles the bid form. An amount at or below the price the user
// was shown is refused before the backend is contacted.
func (h *PageHandler) PlaceBid(c *gin.Context) {
	id := c.Param("id")
	back := "/auctions/" + url.PathEscape(id)

	var form helpers.BidForm
	if err := c.ShouldBind(&form); err != nil {
		h.failAction(c, "PlaceBid", fmt.Errorf("pages: bind bid form: %w", storefronterrors.ErrInvalidBid), back)
		return
	}

	price := form.CurrentPrice
	result, err := h.bids.PlaceBid(c.Request.Context(), helpers.AccessToken(c), bidding.Request{
		AuctionID:    id,
		Amount:       form.Amount,
		CurrentPrice: &price,
		Increment:    form.Increment,
	})
	if err != nil {
		keep := back
		if form.Amount > 0 {
			keep = withBid(back, form.Amount)
		}
		h.failAction(c, "PlaceBid", err, keep)
		return
	}

	helpers.LogSuccess("PlaceBid", "bid placed successfully", map[string]any{
		"auction_id":      id,
		"amount":          result.Bid.Amount,
		"next_suggestion": result.NextSuggestion,
	})
	h.redirectWith(c, flash.Success, "Bid placed successfully!", withBid(back, result.NextSuggestion))
}

// withBid prefills the bid form on the auction page with amount.
func withBid(auctionPath string, amount float64) string {
	return auctionPath + "?bid=" + strconv.FormatFloat(amount, 'f', -1, 64)
}

// PostComment adds a question or a reply to the auction.
func (h *PageHandler) PostComment(c *gin.Context) {
	id := c.Param("id")
	back := "/auctions/" + url.PathEscape(id) + "#comments"

	var form helpers.CommentForm
	h.bindForm(c, "PostComment", &form)

	if _, err := h.catalog.PostComment(c.Request.Context(), helpers.AccessToken(c), id, form.Content, strings.TrimSpace(form.ParentID)); err != nil {
		h.failAction(c, "PostComment", err, back)
		return
	}
	h.redirectWith(c, flash.Success, "Comment added successfully!", back)
}

// SetAuctionState cancels or activates an auction the user owns.
func (h *PageHandler) SetAuctionState(action, success string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		back := "/auctions/" + url.PathEscape(id)
		if err := h.catalog.SetAuctionState(c.Request.Context(), helpers.AccessToken(c), id, action); err != nil {
			h.failAction(c, "SetAuctionState", err, back)
			return
		}
		h.redirectWith(c, flash.Success, success, back)
	}
}

type createView struct {
	Form       helpers.AuctionForm
	MaxImages  int
	Categories []string
	Conditions []string
}

var (
	auctionCategories = []string{"Electronics", "Fashion", "Home & Garden", "Collectibles", "Sports", "Vehicles", "Art", "Other"}
	auctionConditions = []string{"New", "Like New", "Good", "Fair", "Poor"}
)

func newCreateView(form helpers.AuctionForm) createView {
	return createView{
		Form:       form,
		MaxImages:  upload.AuctionImages.MaxFiles,
		Categories: auctionCategories,
		Conditions: auctionConditions,
	}
}

func (h *PageHandler) CreateAuctionPage(c *gin.Context) {
	h.render(c, http.StatusOK, "auction_create.tmpl", "Create auction", newCreateView(helpers.AuctionForm{BidIncrements: bidding.DefaultIncrement}))
}

// CreateAuction validates the listing form and posts it with its images as
// one multipart request. Failures re-render the form with the input kept.
func (h *PageHandler) CreateAuction(c *gin.Context) {
	var form helpers.AuctionForm
	h.bindForm(c, "CreateAuction", &form)
	view := newCreateView(form)
	fail := func(status int, message string) {
		h.renderWithError(c, status, "auction_create.tmpl", "Create auction", view, message)
	}

	multipartForm, err := c.MultipartForm()
	if err != nil {
		fail(http.StatusBadRequest, "Please upload at least one image")
		return
	}
	headers := multipartForm.File[upload.AuctionImages.FieldName]

	fields, problem := auctionFields(form, h.now())
	if problem == "" && len(headers) == 0 {
		problem = "Please upload at least one image"
	}
	if problem != "" {
		fail(http.StatusBadRequest, problem)
		return
	}

	files, err := upload.FromMultipart(headers, upload.DefaultMaxSize)
	if err != nil {
		fail(http.StatusBadRequest, "Failed to read the uploaded images")
		return
	}

	result, err := h.uploader.Upload(c.Request.Context(), helpers.AccessToken(c), files, fields, upload.AuctionImages)
	if err != nil {
		if sessionExpired(err) {
			h.toLogin(c, "/auctions/create")
			return
		}
		status, _ := helpers.MapErrorToHTTP(err)
		fail(status, helpers.ToastMessage(err))
		return
	}
	h.catalog.Invalidate(c.Request.Context(), querycache.PrefixAuctionLists)

	target := "/auctions"
	created, err := backend.DecodeJSON[models.Auction](&backend.Response{Body: result.Raw})
	if err == nil && created.ID != "" {
		target = "/auctions/" + url.PathEscape(created.ID)
	}
	helpers.LogSuccess("CreateAuction", "auction created", map[string]any{
		"auction_id": created.ID,
		"images":     len(files),
	})
	h.redirectWith(c, flash.Success, "Auction created successfully!", target)
}

// auctionFields checks the listing form and returns the multipart fields to
// send, or the first problem found.
func auctionFields(form helpers.AuctionForm, now time.Time) (url.Values, string) {
	if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.Description) == "" || form.EndTime == "" {
		return nil, "Please fill all required fields"
	}
	if !form.TermsAccepted {
		return nil, "You must accept the terms and conditions"
	}
	if form.StartingPrice <= 0 {
		return nil, "Starting price must be greater than 0"
	}

	start := now
	if form.StartTime != "" {
		t, ok := models.ParseTime(form.StartTime)
		if !ok {
			return nil, "Invalid start time"
		}
		start = t
	}
	end, ok := models.ParseTime(form.EndTime)
	if !ok {
		return nil, "Invalid end time"
	}
	if !end.After(start) || !end.After(now) {
		return nil, "End time must be after the start time"
	}

	money := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	fields := url.Values{
		"title":         {strings.TrimSpace(form.Title)},
		"description":   {strings.TrimSpace(form.Description)},
		"startingPrice": {money(form.StartingPrice)},
		"bidIncrements": {money(bidding.Increment(form.BidIncrements))},
		"startTime":     {start.UTC().Format(time.RFC3339)},
		"endTime":       {end.UTC().Format(time.RFC3339)},
	}
	for key, value := range map[string]string{
		"category":     form.Category,
		"condition":    form.Condition,
		"returnPolicy": form.ReturnPolicy,
	} {
		if v := strings.TrimSpace(value); v != "" {
			fields.Set(key, v)
		}
	}
	if form.ReservePrice > 0 {
		fields.Set("reservePrice", money(form.ReservePrice))
	}
	if form.ShippingCost > 0 {
		fields.Set("shippingCost", money(form.ShippingCost))
	}
	return fields, ""
}

// CountdownStream pushes the remaining time of an auction as server-sent
// events until it ends or the client disconnects.
func (h *PageHandler) CountdownStream(c *gin.Context) {
	auction, err := h.catalog.Auction(c.Request.Context(), helpers.AccessToken(c), c.Param("id"))
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		if message == "" {
			message = helpers.ToastServerError
		}
		utils.JSONMessage(c, status, message)
		return
	}
	end, _ := models.ParseTime(auction.EndTime)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := countdown.Ticker{Interval: h.tick, Now: h.now}
	ticker.Run(c.Request.Context(), end, func(label string) {
		c.SSEvent("countdown", label)
		c.Writer.Flush()
	})
}

// NotificationsSocket upgrades to the live unread-count feed.
func (h *PageHandler) NotificationsSocket(c *gin.Context) {
	token := helpers.AccessToken(c)
	if token == "" {
		utils.JSONMessage(c, http.StatusUnauthorized, helpers.MsgUnauthenticated)
		return
	}
	if err := h.feed.Serve(c.Request.Context(), c.Writer, c.Request, token); err != nil {
		utils.Warn("NotificationsSocket: feed ended with error", map[string]any{"error": err.Error()})
	}
}
