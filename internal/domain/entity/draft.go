package entity

// ListingDraft is the not-yet-submitted listing state of one identity.
type ListingDraft struct {
	ListingImages  []string `json:"listingImages"`
	ListingAddress *string  `json:"listingAddress"`
	ListingLat     float64  `json:"listingLat"`
	ListingLon     float64  `json:"listingLon"`
	UploadProgress float64  `json:"uploadProgress"`
}

func EmptyDraft() ListingDraft {
	return ListingDraft{ListingImages: []string{}}
}
