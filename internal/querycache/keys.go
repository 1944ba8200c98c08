package querycache

import (
	"net/url"
	"strconv"
	"strings"
)

// Key prefixes. Mutations invalidate by prefix, so a key always starts with
// the prefix of the resource it reads.
const (
	PrefixAuctions      = "auctions/"
	PrefixAuctionLists  = "auctions/list/"
	PrefixAuctionDetail = "auctions/detail/"
	PrefixBids          = "bids/"
	PrefixComments      = "comments/"
)

// Key joins parts with "/".
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}

// AuctionDetailKey is the key of one auction. The trailing "/" keeps
// invalidating auction 1 from also matching auction 10.
func AuctionDetailKey(id string) string {
	return PrefixAuctionDetail + id + "/"
}

// AuctionListKey is the key of one auction list page. Filters are encoded in
// sorted order so equal queries share a key.
func AuctionListKey(filters url.Values) string {
	return PrefixAuctionLists + filters.Encode()
}

// AuctionBidsKey is the key of an auction's bid history page.
func AuctionBidsKey(auctionID string, page, limit int) string {
	return Key("bids", "list", auctionID, strconv.Itoa(page), strconv.Itoa(limit))
}

// AuctionBidsPrefix covers every bid history page of an auction.
func AuctionBidsPrefix(auctionID string) string {
	return Key("bids", "list", auctionID) + "/"
}

// AuctionCommentsKey is the key of an auction's comment list.
func AuctionCommentsKey(auctionID string, filters url.Values) string {
	return Key("comments", "auction", auctionID, filters.Encode())
}

// AuctionCommentsPrefix covers every comment listing of an auction.
func AuctionCommentsPrefix(auctionID string) string {
	return Key("comments", "auction", auctionID) + "/"
}
