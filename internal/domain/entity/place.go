package entity

type PlaceSuggestion struct {
	PlaceID       string   `json:"placeId"`
	Text          string   `json:"text"`
	SecondaryText string   `json:"secondaryText,omitempty"`
	Types         []string `json:"types,omitempty"`
}

type PlaceDetails struct {
	PlaceID          string   `json:"placeId"`
	DisplayName      string   `json:"displayName,omitempty"`
	FormattedAddress string   `json:"formattedAddress"`
	Lat              *float64 `json:"lat,omitempty"`
	Lon              *float64 `json:"lon,omitempty"`
}
