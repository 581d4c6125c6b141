package usecase

import (
	"muzmates/internal/domain/entity"
)

// JoinListings annotates each listing with its owner's profile, matched on
// profile.UserID == listing.OwnerID. The first matching profile wins, listings without
// an owner profile get the zero profile, and the output keeps the listing order.
func JoinListings(listings []*entity.Listing, users []*entity.UserProfile) []entity.JoinedListing {
	owners := make(map[string]*entity.UserProfile, len(users))
	for _, user := range users {
		if user == nil || user.UserID == "" {
			continue
		}
		if _, seen := owners[user.UserID]; !seen {
			owners[user.UserID] = user
		}
	}

	joined := make([]entity.JoinedListing, 0, len(listings))
	for _, listing := range listings {
		if listing == nil {
			continue
		}
		item := entity.JoinedListing{Listing: *listing}
		if owner, ok := owners[listing.OwnerID]; ok {
			item.User = *owner
		}
		joined = append(joined, item)
	}
	return joined
}
