package repository

import (
	"context"

	"muzmates/internal/domain/entity"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, docID string) (*entity.Listing, error)
	Update(ctx context.Context, docID string, fields map[string]interface{}) error
	Delete(ctx context.Context, docID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Listing, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int, error)
}
