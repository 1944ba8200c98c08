package helpers

import "quickbidz-storefront/internal/models"

// Request DTOs for the /api routes
type PlaceBidRequest struct {
	AuctionID    string   `json:"auctionId" binding:"required"`
	Amount       float64  `json:"amount"`
	CurrentPrice *float64 `json:"currentPrice,omitempty"`
	Increment    float64  `json:"bidIncrements,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Dob       string `json:"dob"`
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Bio      string `json:"bio"`
}

type RegisterTokenRequest struct {
	FCMToken string `json:"fcmToken"`
}

// Form DTOs for the server-rendered pages
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	From     string `form:"from"`
}

type SignupForm struct {
	FirstName string `form:"firstName"`
	LastName  string `form:"lastName"`
	Email     string `form:"email"`
	Username  string `form:"username"`
	Password  string `form:"password"`
	Dob       string `form:"dob"`
}

type EmailForm struct {
	Email string `form:"email"`
}

type TokenForm struct {
	Token    string `form:"token"`
	Password string `form:"password"`
}

type BidForm struct {
	Amount       float64 `form:"amount"`
	CurrentPrice float64 `form:"currentPrice"`
	Increment    float64 `form:"increment"`
}

type CommentForm struct {
	Content  string `form:"content"`
	ParentID string `form:"parentId"`
}

type AuctionForm struct {
	Title         string  `form:"title"`
	Description   string  `form:"description"`
	Category      string  `form:"category"`
	Condition     string  `form:"condition"`
	StartingPrice float64 `form:"startingPrice"`
	ReservePrice  float64 `form:"reservePrice"`
	BidIncrements float64 `form:"bidIncrements"`
	ShippingCost  float64 `form:"shippingCost"`
	ReturnPolicy  string  `form:"returnPolicy"`
	StartTime     string  `form:"startTime"`
	EndTime       string  `form:"endTime"`
	TermsAccepted bool    `form:"termsAccepted"`
}

// Response DTOs
type LoginResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

type RegisterTokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
