package repository

import (
	"context"

	"muzmates/internal/domain/entity"
)

type UserProfileRepository interface {
	Create(ctx context.Context, profile *entity.UserProfile) error
	GetByID(ctx context.Context, docID string) (*entity.UserProfile, error)
	Update(ctx context.Context, docID string, fields map[string]interface{}) error
	Delete(ctx context.Context, docID string) error
}
