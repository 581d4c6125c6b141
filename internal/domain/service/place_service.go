package service

import (
	"context"

	"muzmates/internal/domain/entity"
)

type PlaceLookupService interface {
	Autocomplete(ctx context.Context, input string) ([]entity.PlaceSuggestion, error)
	Details(ctx context.Context, placeID string) (*entity.PlaceDetails, error)
}
