package models

import (
	"strings"
	"time"
)

// AuctionStatus is the lifecycle state reported by the backend.
type AuctionStatus string

const (
	AuctionPending   AuctionStatus = "PENDING"
	AuctionActive    AuctionStatus = "ACTIVE"
	AuctionCompleted AuctionStatus = "COMPLETED"
	AuctionCancelled AuctionStatus = "CANCELLED"
)

// Normalize folds the lowercase and legacy spellings the backend emits
// ("active", "ended", "draft") onto the canonical set.
func (s AuctionStatus) Normalize() AuctionStatus {
	switch strings.ToUpper(strings.TrimSpace(string(s))) {
	case "ACTIVE":
		return AuctionActive
	case "COMPLETED", "ENDED":
		return AuctionCompleted
	case "CANCELLED", "CANCELED":
		return AuctionCancelled
	case "PENDING", "DRAFT":
		return AuctionPending
	default:
		return s
	}
}

// UserSummary is the embedded user shape attached to auctions, bids and comments.
type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Auction represents a listed item accepting time-bounded bids
type Auction struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      string        `json:"category,omitempty"`
	Condition     string        `json:"condition,omitempty"`
	StartingPrice float64       `json:"startingPrice"`
	CurrentPrice  float64       `json:"currentPrice"`
	ReservePrice  *float64      `json:"reservePrice,omitempty"`
	BidIncrements *float64      `json:"bidIncrements,omitempty"`
	ShippingCost  *float64      `json:"shippingCost,omitempty"`
	ReturnPolicy  string        `json:"returnPolicy,omitempty"`
	StartTime     string        `json:"startTime"`
	EndTime       string        `json:"endTime"`
	Status        AuctionStatus `json:"status"`
	SellerID      string        `json:"sellerId"`
	WinningBidID  string        `json:"winningBidId,omitempty"`
	ImageURLs     []string      `json:"imageUrls,omitempty"`
	Seller        *UserSummary  `json:"seller,omitempty"`
	TotalBids     int           `json:"totalBids,omitempty"`
	CreatedAt     string        `json:"createdAt,omitempty"`
	UpdatedAt     string        `json:"updatedAt,omitempty"`
}

// Increment returns the configured bid increment or 0 when unset.
func (a Auction) Increment() float64 {
	if a.BidIncrements == nil {
		return 0
	}
	return *a.BidIncrements
}

// Bid represents a user's monetary offer against an auction
type Bid struct {
	ID        string       `json:"id"`
	Amount    float64      `json:"amount"`
	AuctionID string       `json:"auctionId"`
	BidderID  string       `json:"bidderId,omitempty"`
	UserID    string       `json:"userId,omitempty"`
	Status    string       `json:"status,omitempty"`
	CreatedAt string       `json:"createdAt"`
	User      *UserSummary `json:"user,omitempty"`
}

// Bidder returns the bidder id regardless of which field the backend filled.
func (b Bid) Bidder() string {
	if b.BidderID != "" {
		return b.BidderID
	}
	return b.UserID
}

// Comment is a question or reply on an auction. ParentID is nil for
// top-level questions; replies are one level deep.
type Comment struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	AuctionID string       `json:"auctionId"`
	UserID    string       `json:"userId"`
	ParentID  *string      `json:"parentId"`
	Answer    string       `json:"answer,omitempty"`
	User      *UserSummary `json:"user,omitempty"`
	CreatedAt string       `json:"createdAt"`
	UpdatedAt string       `json:"updatedAt,omitempty"`
}

// Thread is a top-level comment with its direct replies.
type Thread struct {
	Comment
	Replies []Comment
}

// Threads groups a flat comment list into one-level threads, preserving the
// backend order. Replies whose parent is missing are promoted to top level.
func Threads(comments []Comment) []Thread {
	index := make(map[string]int, len(comments))
	threads := make([]Thread, 0, len(comments))
	for _, c := range comments {
		if c.ParentID == nil || *c.ParentID == "" {
			index[c.ID] = len(threads)
			threads = append(threads, Thread{Comment: c})
		}
	}
	for _, c := range comments {
		if c.ParentID == nil || *c.ParentID == "" {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
			continue
		}
		threads = append(threads, Thread{Comment: c})
	}
	return threads
}

// User is the profile of the signed-in user
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Dob          string `json:"dob,omitempty"`
	Bio          string `json:"bio,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	IsVerified   bool   `json:"isVerified"`
}

// Notification is a message addressed to the signed-in user
type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Read      bool   `json:"isRead"`
	AuctionID string `json:"auctionId,omitempty"`
	RelatedID string `json:"relatedId,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Auction returns the referenced auction id under either field name.
func (n Notification) Auction() string {
	if n.AuctionID != "" {
		return n.AuctionID
	}
	return n.RelatedID
}

// AuthResponse is what the backend returns from login and register
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// ParseTime parses the timestamp layouts the backend is known to send.
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
