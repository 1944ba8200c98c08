package pages

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the pages on r. protect gates the signed-in pages;
// guest keeps signed-in users away from the login and sign-up forms.
func (h *PageHandler) RegisterRoutes(r gin.IRouter, protect, guest gin.HandlerFunc) {
	r.GET("/", h.Home)
	for _, name := range []string{"about", "contact", "terms", "privacy"} {
		r.GET("/"+name, h.Static(name))
	}

	auth := r.Group("", guest)
	{
		auth.GET("/login", h.LoginPage)
		auth.POST("/login", h.Login)
		auth.GET("/signup", h.SignupPage)
		auth.POST("/signup", h.Signup)
		auth.GET("/forgot-password", h.ForgotPasswordPage)
		auth.POST("/forgot-password", h.ForgotPassword)
	}
	r.GET("/reset-password", h.ResetPasswordPage)
	r.POST("/reset-password", h.ResetPassword)
	r.GET("/verify-email", h.TokenAction("verify-email", "Email verification", "Your email has been verified. You can now log in."))
	r.GET("/activate-account", h.TokenAction("activate-account", "Account activation", "Your account is active. You can now log in."))
	r.GET("/login/resend-verification", h.ResendVerificationPage)
	r.POST("/login/resend-verification", h.ResendVerification)
	r.POST("/logout", h.Logout)

	r.GET("/auctions/:id/countdown/stream", h.CountdownStream)

	private := r.Group("", protect)
	{
		private.GET("/dashboard", h.Dashboard)
		private.GET("/profile", h.Profile)
		private.POST("/profile", h.UpdateProfile)
		private.POST("/profile/image", h.UploadProfileImage)

		private.GET("/auctions", h.Auctions)
		private.GET("/auctions/create", h.CreateAuctionPage)
		private.POST("/auctions/create", h.CreateAuction)
		private.GET("/auctions/:id", h.AuctionDetail)
		private.POST("/auctions/:id/bids", h.PlaceBid)
		private.POST("/auctions/:id/comments", h.PostComment)
		private.POST("/auctions/:id/cancel", h.SetAuctionState("cancel", "Auction cancelled successfully!"))
		private.POST("/auctions/:id/activate", h.SetAuctionState("activate", "Auction activated successfully!"))

		private.GET("/bids", h.MyBids)
		private.GET("/notifications", h.Notifications)
		private.POST("/notifications/read-all", h.MarkAllNotificationsRead)
		private.POST("/notifications/:id/read", h.MarkNotificationRead)

		private.GET("/ws/notifications", h.NotificationsSocket)
	}
}
