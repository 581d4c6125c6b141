package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	MaxListingImages          = 5
	MaxListingDescriptionSize = 500
)

type Listing struct {
	DocID string `json:"docId" firestore:"-"`
	// OwnerID is the uid of the listing owner, stored under the legacy field name "id".
	OwnerID            string    `json:"id" firestore:"id"`
	ListingName        string    `json:"listingName" firestore:"listingName"`
	ListingPrice       float64   `json:"listingPrice" firestore:"listingPrice"`
	ListingAddress     string    `json:"listingAddress" firestore:"listingAddress"`
	ListingLat         *float64  `json:"listingLat" firestore:"listingLat"`
	ListingLon         *float64  `json:"listingLon" firestore:"listingLon"`
	ListingImages      []string  `json:"listingImages" firestore:"listingImages"`
	ListingDescription string    `json:"listingDescription" firestore:"listingDescription"`
	ListingGender      string    `json:"listingGender" firestore:"listingGender"`
	NumberOfBeds       int       `json:"numberOfBeds" firestore:"numberOfBeds"`
	NumberOfBaths      int       `json:"numberOfBaths" firestore:"numberOfBaths"`
	IsPending          bool      `json:"isPending" firestore:"isPending"`
	IsApproved         bool      `json:"isApproved" firestore:"isApproved"`
	IsRejected         bool      `json:"isRejected" firestore:"isRejected"`
	CreatedAt          time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// JoinedListing is a Listing annotated with its owner's profile. It is never persisted.
type JoinedListing struct {
	Listing
	User UserProfile `json:"user"`
}

// ParsePrice accepts plain decimal text such as "1200" or "950.50".
func ParsePrice(text string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, strconv.ErrSyntax
	}
	return price, nil
}

// PriceValue reads a stored listingPrice. Listings edited by older app versions hold the
// price as text, so numeric strings are accepted alongside numbers.
func PriceValue(v interface{}) (float64, error) {
	switch p := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return p, nil
	case int64:
		return float64(p), nil
	case string:
		return ParsePrice(p)
	}
	return 0, fmt.Errorf("unsupported listingPrice type %T", v)
}
