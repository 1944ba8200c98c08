package handler

import (
	"net/http"
	"net/url"

	"quickbidz-storefront/internal/account"
	"quickbidz-storefront/internal/pagination"
	"quickbidz-storefront/internal/querycache"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every /api endpoint on api.
func (h *APIHandler) RegisterRoutes(api *gin.RouterGroup) {
	h.registerAuctions(api.Group("/auctions"))
	h.registerBids(api.Group("/bids"))
	h.registerComments(api.Group("/comments"))
	h.registerNotifications(api.Group("/notifications"))

	users := api.Group("/users")
	{
		users.PUT("/update-profile", h.UpdateProfileHandler)
		users.POST("/profile-image", h.ProfileImageHandler)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.LoginHandler)
		auth.POST("/register", h.RegisterHandler)
		auth.POST("/logout", h.LogoutHandler)
		auth.GET("/me", h.MeHandler)
		for _, action := range account.PublicActions {
			auth.POST("/"+action, h.PublicAuthHandler(action))
		}
	}
}

func auctionInvalidation(c *gin.Context) []string {
	return []string{querycache.AuctionDetailKey(c.Param("id")), querycache.PrefixAuctionLists}
}

func (h *APIHandler) registerAuctions(g *gin.RouterGroup) {
	g.GET("", h.Forward(Route{
		Name:     "ListAuctions",
		Method:   http.MethodGet,
		Path:     static("/auctions/getAll"),
		Filters:  []string{"status", "sellerId"},
		Paginate: true,
		Fallback: "Failed to fetch auctions",
		CacheKey: func(_ *gin.Context, q url.Values) string { return querycache.AuctionListKey(q) },
	}))
	g.POST("", h.CreateAuctionHandler)
	g.GET("/search", h.Forward(Route{
		Name:     "SearchAuctions",
		Method:   http.MethodGet,
		Path:     static("/auctions/search"),
		Filters:  []string{"term"},
		Paginate: true,
		Fallback: "Failed to search auctions",
		Validate: requireQuery("term", "Search term is required"),
	}))
	g.GET("/:id", h.Forward(Route{
		Name:     "GetAuction",
		Method:   http.MethodGet,
		Path:     withParam("/auctions/", "id", ""),
		Fallback: "Failed to fetch auction",
		CacheKey: func(c *gin.Context, _ url.Values) string { return querycache.AuctionDetailKey(c.Param("id")) },
	}))
	g.PATCH("/:id", h.Forward(Route{
		Name:       "UpdateAuction",
		Method:     http.MethodPatch,
		Path:       withParam("/auctions/", "id", ""),
		Fallback:   "Failed to update auction",
		Invalidate: auctionInvalidation,
	}))
	g.DELETE("/:id", h.Forward(Route{
		Name:       "DeleteAuction",
		Method:     http.MethodDelete,
		Path:       withParam("/auctions/", "id", ""),
		Status:     http.StatusOK,
		Message:    "Auction deleted successfully.",
		Fallback:   "Failed to delete auction",
		Invalidate: auctionInvalidation,
	}))
	g.PUT("/:id/cancel", h.Forward(Route{
		Name:       "CancelAuction",
		Method:     http.MethodPut,
		Path:       withParam("/auctions/", "id", "/cancel"),
		Fallback:   "Failed to cancel auction",
		Invalidate: auctionInvalidation,
	}))
	g.PUT("/:id/activate", h.Forward(Route{
		Name:       "ActivateAuction",
		Method:     http.MethodPut,
		Path:       withParam("/auctions/", "id", "/activate"),
		Fallback:   "Failed to activate auction",
		Invalidate: auctionInvalidation,
	}))
}

func (h *APIHandler) registerBids(g *gin.RouterGroup) {
	bidChanged := prefixes(querycache.PrefixBids, querycache.PrefixAuctions)

	g.POST("", h.PlaceBidHandler)
	g.GET("", h.Forward(Route{
		Name:     "ListBids",
		Method:   http.MethodGet,
		Path:     static("/bids"),
		Filters:  []string{"auctionId", "bidderId", "status"},
		Paginate: true,
		Fallback: "Failed to fetch bids",
	}))
	g.GET("/my-bids", h.Forward(Route{
		Name:     "MyBids",
		Method:   http.MethodGet,
		Path:     static("/bids/my-bids"),
		Paginate: true,
		Fallback: "Failed to fetch your bids",
	}))
	g.GET("/auction/:auctionId", h.Forward(Route{
		Name:     "AuctionBids",
		Method:   http.MethodGet,
		Path:     withParam("/bids/auction/", "auctionId", ""),
		Paginate: true,
		Fallback: "Failed to fetch auction bids",
		CacheKey: func(c *gin.Context, _ url.Values) string {
			p := pagination.ParseParams(c.Request.URL.Query())
			return querycache.AuctionBidsKey(c.Param("auctionId"), p.Page, p.Limit)
		},
	}))
	g.GET("/:id", h.Forward(Route{
		Name:     "GetBid",
		Method:   http.MethodGet,
		Path:     withParam("/bids/", "id", ""),
		Fallback: "Failed to fetch bid",
	}))
	g.PATCH("/:id", h.Forward(Route{
		Name:       "UpdateBid",
		Method:     http.MethodPatch,
		Path:       withParam("/bids/", "id", ""),
		Fallback:   "Failed to update bid",
		Invalidate: bidChanged,
	}))
	g.DELETE("/:id", h.Forward(Route{
		Name:       "CancelBid",
		Method:     http.MethodDelete,
		Path:       withParam("/bids/", "id", ""),
		Status:     http.StatusOK,
		Message:    "Bid cancelled.",
		Fallback:   "Failed to cancel bid",
		Invalidate: bidChanged,
	}))
}

func (h *APIHandler) registerComments(g *gin.RouterGroup) {
	commentChanged := prefixes(querycache.PrefixComments)

	g.POST("", h.Forward(Route{
		Name:       "CreateComment",
		Method:     http.MethodPost,
		Path:       static("/comments"),
		Status:     http.StatusCreated,
		Fallback:   "Failed to create comment",
		Invalidate: commentChanged,
	}))
	g.GET("", h.Forward(Route{
		Name:     "ListComments",
		Method:   http.MethodGet,
		Path:     static("/comments"),
		Filters:  []string{"auctionId", "parentId", "userId"},
		Paginate: true,
		Fallback: "Failed to fetch comments",
	}))
	g.GET("/my-comments", h.Forward(Route{
		Name:     "MyComments",
		Method:   http.MethodGet,
		Path:     static("/comments/my-comments"),
		Paginate: true,
		Fallback: "Failed to fetch your comments",
	}))
	g.GET("/auction/:auctionId", h.Forward(Route{
		Name:     "AuctionComments",
		Method:   http.MethodGet,
		Path:     withParam("/comments/auction/", "auctionId", ""),
		Filters:  []string{"parentId"},
		Paginate: true,
		Fallback: "Failed to fetch auction comments",
		CacheKey: func(c *gin.Context, q url.Values) string {
			return querycache.AuctionCommentsKey(c.Param("auctionId"), q)
		},
	}))
	g.GET("/:id", h.Forward(Route{
		Name:     "GetComment",
		Method:   http.MethodGet,
		Path:     withParam("/comments/", "id", ""),
		Fallback: "Failed to fetch comment",
	}))
	g.PATCH("/:id", h.Forward(Route{
		Name:       "UpdateComment",
		Method:     http.MethodPatch,
		Path:       withParam("/comments/", "id", ""),
		Fallback:   "Failed to update comment",
		Invalidate: commentChanged,
	}))
	g.DELETE("/:id", h.Forward(Route{
		Name:       "DeleteComment",
		Method:     http.MethodDelete,
		Path:       withParam("/comments/", "id", ""),
		Status:     http.StatusOK,
		Message:    "Comment deleted.",
		Fallback:   "Failed to delete comment",
		Invalidate: commentChanged,
	}))
}

func (h *APIHandler) registerNotifications(g *gin.RouterGroup) {
	g.POST("", h.Forward(Route{
		Name:     "CreateNotification",
		Method:   http.MethodPost,
		Path:     static("/notifications"),
		Status:   http.StatusCreated,
		Fallback: "Failed to create notification",
	}))
	g.GET("", h.Forward(Route{
		Name:     "ListNotifications",
		Method:   http.MethodGet,
		Path:     static("/notifications"),
		Filters:  []string{"userId", "read"},
		Paginate: true,
		Fallback: "Failed to fetch notifications",
	}))
	g.GET("/my", h.Forward(Route{
		Name:     "MyNotifications",
		Method:   http.MethodGet,
		Path:     static("/notifications/my"),
		Filters:  []string{"read"},
		Paginate: true,
		Fallback: "Failed to fetch your notifications",
	}))
	g.GET("/unread-count", h.Forward(Route{
		Name:     "UnreadCount",
		Method:   http.MethodGet,
		Path:     static("/notifications/unread-count"),
		Fallback: "Failed to fetch unread count",
	}))
	g.PATCH("/mark-all-as-read", h.Forward(Route{
		Name:     "MarkAllNotificationsRead",
		Method:   http.MethodPatch,
		Path:     static("/notifications/mark-all-as-read"),
		Fallback: "Failed to mark notifications as read",
	}))
	g.DELETE("/delete-all-read", h.Forward(Route{
		Name:     "DeleteReadNotifications",
		Method:   http.MethodDelete,
		Path:     static("/notifications/delete-all-read"),
		Status:   http.StatusOK,
		Message:  "All read notifications deleted.",
		Fallback: "Failed to delete read notifications",
	}))
	g.POST("/register-token", h.RegisterTokenHandler)
	g.GET("/:id", h.Forward(Route{
		Name:     "GetNotification",
		Method:   http.MethodGet,
		Path:     withParam("/notifications/", "id", ""),
		Fallback: "Failed to fetch notification",
	}))
	g.PATCH("/:id", h.Forward(Route{
		Name:     "UpdateNotification",
		Method:   http.MethodPatch,
		Path:     withParam("/notifications/", "id", ""),
		Fallback: "Failed to update notification",
	}))
	g.DELETE("/:id", h.Forward(Route{
		Name:     "DeleteNotification",
		Method:   http.MethodDelete,
		Path:     withParam("/notifications/", "id", ""),
		Status:   http.StatusOK,
		Message:  "Notification deleted.",
		Fallback: "Failed to delete notification",
	}))
	g.PATCH("/:id/mark-as-read", h.Forward(Route{
		Name:     "MarkNotificationRead",
		Method:   http.MethodPatch,
		Path:     withParam("/notifications/", "id", "/mark-as-read"),
		Fallback: "Failed to mark notification as read",
	}))
}
