package pages

import (
	"html/template"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"quickbidz-storefront/internal/account"
	"quickbidz-storefront/internal/flash"
	"quickbidz-storefront/internal/models"
	"quickbidz-storefront/internal/pagination"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/internal/upload"
	"quickbidz-storefront/services/storefront/helpers"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type dashboardView struct {
	User        models.User
	RecentBids  []models.Bid
	MyAuctions  []models.Auction
	UnreadCount int
}

// Dashboard summarises the user's account: recent bids, their own
// auctions and the unread notification count.
func (h *PageHandler) Dashboard(c *gin.Context) {
	token := helpers.AccessToken(c)
	sellerID := subject(c)

	var view dashboardView
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		user, _, err := h.accounts.Me(ctx, token)
		view.User = user
		return err
	})
	g.Go(func() error {
		page, err := h.catalog.MyBids(ctx, token, pagination.Params{Page: 1, Limit: 5})
		view.RecentBids = page.Items
		return err
	})
	g.Go(func() error {
		count, err := h.catalog.UnreadCount(ctx, token)
		view.UnreadCount = count
		return err
	})
	if sellerID != "" {
		g.Go(func() error {
			page, err := h.catalog.Auctions(ctx, token, url.Values{"sellerId": {sellerID}}, pagination.Params{Page: 1, Limit: 5})
			view.MyAuctions = page.Items
			return err
		})
	}
	if err := g.Wait(); err != nil {
		h.failPage(c, "Dashboard", err)
		return
	}

	h.render(c, http.StatusOK, "dashboard.tmpl", "Dashboard", view)
}

type profileView struct {
	User models.User
}

func (h *PageHandler) Profile(c *gin.Context) {
	user, _, err := h.accounts.Me(c.Request.Context(), helpers.AccessToken(c))
	if err != nil {
		h.failPage(c, "Profile", err)
		return
	}
	h.render(c, http.StatusOK, "profile.tmpl", "Profile", profileView{User: user})
}

// UpdateProfile saves the username, full name and bio.
func (h *PageHandler) UpdateProfile(c *gin.Context) {
	_, err := h.accounts.UpdateProfile(c.Request.Context(), helpers.AccessToken(c), account.ProfileUpdate{
		Username: c.PostForm("username"),
		FullName: strings.TrimSpace(c.PostForm("fullName")),
		Bio:      strings.TrimSpace(c.PostForm("bio")),
	})
	if err != nil {
		h.failAction(c, "UpdateProfile", err, "/profile")
		return
	}
	h.redirectWith(c, flash.Success, "Profile updated successfully", "/profile")
}

// UploadProfileImage replaces the user's avatar.
func (h *PageHandler) UploadProfileImage(c *gin.Context) {
	header, err := c.FormFile(upload.ProfileImage.FieldName)
	if err != nil {
		h.failAction(c, "UploadProfileImage", storefronterrors.Invalid("Please select an image first"), "/profile")
		return
	}

	files, err := upload.FromMultipart([]*multipart.FileHeader{header}, upload.DefaultMaxSize)
	if err != nil {
		h.failAction(c, "UploadProfileImage", err, "/profile")
		return
	}
	if _, err := h.uploader.Upload(c.Request.Context(), helpers.AccessToken(c), files, nil, upload.ProfileImage); err != nil {
		h.failAction(c, "UploadProfileImage", err, "/profile")
		return
	}
	h.redirectWith(c, flash.Success, "Profile image updated successfully", "/profile")
}

type bidsView struct {
	Bids  []models.Bid
	Pager pagination.State
	Query template.URL
}

// MyBids lists the user's bids.
func (h *PageHandler) MyBids(c *gin.Context) {
	params := pagination.ParseParams(c.Request.URL.Query())
	page, err := h.catalog.MyBids(c.Request.Context(), helpers.AccessToken(c), params)
	if err != nil {
		h.failPage(c, "MyBids", err)
		return
	}
	h.render(c, http.StatusOK, "bids.tmpl", "My bids", bidsView{
		Bids:  page.Items,
		Pager: pagination.Controls(params.Page, page.TotalPages),
	})
}

type notificationsView struct {
	Notifications []models.Notification
	Pager         pagination.State
	UnreadOnly    bool
	Query         template.URL
}

// Notifications lists the user's notifications, optionally unread only.
func (h *PageHandler) Notifications(c *gin.Context) {
	params := pagination.ParseParams(c.Request.URL.Query())
	unreadOnly := c.Query("read") == "false"

	filters := url.Values{}
	if unreadOnly {
		filters.Set("read", "false")
	}
	page, err := h.catalog.MyNotifications(c.Request.Context(), helpers.AccessToken(c), filters, params)
	if err != nil {
		h.failPage(c, "Notifications", err)
		return
	}

	h.render(c, http.StatusOK, "notifications.tmpl", "Notifications", notificationsView{
		Notifications: page.Items,
		Pager:         pagination.Controls(params.Page, page.TotalPages),
		UnreadOnly:    unreadOnly,
		Query:         template.URL(filters.Encode()),
	})
}

// MarkNotificationRead marks one notification read and returns to the list.
func (h *PageHandler) MarkNotificationRead(c *gin.Context) {
	if err := h.catalog.MarkNotificationRead(c.Request.Context(), helpers.AccessToken(c), c.Param("id")); err != nil {
		h.failAction(c, "MarkNotificationRead", err, "/notifications")
		return
	}
	c.Redirect(http.StatusSeeOther, "/notifications")
}

// MarkAllNotificationsRead marks every notification read.
func (h *PageHandler) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.catalog.MarkAllNotificationsRead(c.Request.Context(), helpers.AccessToken(c)); err != nil {
		h.failAction(c, "MarkAllNotificationsRead", err, "/notifications")
		return
	}
	h.redirectWith(c, flash.Success, "All notifications marked as read", "/notifications")
}
