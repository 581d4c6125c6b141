package usecase

import (
	"context"
	"time"

	"muzmates/internal/domain/entity"
	"muzmates/internal/domain/repository"
	"muzmates/internal/domain/service"
	"muzmates/pkg/errors"
	"muzmates/pkg/logger"
)

type ListingUseCase struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserProfileRepository
	files       service.FileUploadService
	timeout     time.Duration
}

func NewListingUseCase(
	listingRepo repository.ListingRepository,
	userRepo repository.UserProfileRepository,
	files service.FileUploadService,
	timeout time.Duration,
) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		files:       files,
		timeout:     timeout,
	}
}

// CreateListing validates input and stores a listing awaiting moderation.
// Nothing is sent to the backend when validation fails.
func (uc *ListingUseCase) CreateListing(ctx context.Context, ownerID string, input ListingInput) (*entity.Listing, error) {
	price, err := validateListing(&input)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	// The listing inherits the owner's gender; a missing profile leaves it empty.
	gender := ""
	if profile, err := uc.userRepo.GetByID(ctx, ownerID); err == nil {
		gender = profile.Gender
	} else if !errors.Is(err, "NOT_FOUND") {
		return nil, remoteError(err)
	}

	listing := &entity.Listing{
		OwnerID:            ownerID,
		ListingName:        input.ListingName,
		ListingPrice:       price,
		ListingAddress:     input.ListingAddress,
		ListingLat:         input.ListingLat,
		ListingLon:         input.ListingLon,
		ListingImages:      input.ListingImages,
		ListingDescription: input.ListingDescription,
		ListingGender:      gender,
		NumberOfBeds:       input.NumberOfBeds,
		NumberOfBaths:      input.NumberOfBaths,
		IsPending:          true,
		IsApproved:         false,
		IsRejected:         false,
	}

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, remoteError(err)
	}

	logger.Info("Listing %s created by %s", listing.DocID, ownerID)
	return listing, nil
}

// UpdateListing replaces the editable fields of docID. Moderation flags and the owner
// never change here.
func (uc *ListingUseCase) UpdateListing(ctx context.Context, ownerID, docID string, input ListingInput) (*entity.Listing, error) {
	if docID == "" {
		return nil, errors.BadRequest("Listing id is required", nil)
	}

	price, err := validateListing(&input)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	listing, err := uc.ownedListing(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"listingName":        input.ListingName,
		"listingPrice":       price,
		"listingAddress":     input.ListingAddress,
		"listingImages":      input.ListingImages,
		"listingDescription": input.ListingDescription,
		"numberOfBeds":       input.NumberOfBeds,
		"numberOfBaths":      input.NumberOfBaths,
	}
	if input.ListingLat != nil {
		fields["listingLat"] = *input.ListingLat
		listing.ListingLat = input.ListingLat
	}
	if input.ListingLon != nil {
		fields["listingLon"] = *input.ListingLon
		listing.ListingLon = input.ListingLon
	}

	if err := uc.listingRepo.Update(ctx, docID, fields); err != nil {
		return nil, remoteError(err)
	}

	listing.ListingName = input.ListingName
	listing.ListingPrice = price
	listing.ListingAddress = input.ListingAddress
	listing.ListingImages = input.ListingImages
	listing.ListingDescription = input.ListingDescription
	listing.NumberOfBeds = input.NumberOfBeds
	listing.NumberOfBaths = input.NumberOfBaths

	return listing, nil
}

// DeleteListing removes docID and then, best effort, its uploaded images.
func (uc *ListingUseCase) DeleteListing(ctx context.Context, ownerID, docID string) error {
	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	listing, err := uc.ownedListing(ctx, ownerID, docID)
	if err != nil {
		return err
	}

	if err := uc.listingRepo.Delete(ctx, docID); err != nil {
		return remoteError(err)
	}

	uc.deleteImages(ctx, listing.ListingImages)
	return nil
}

func (uc *ListingUseCase) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Listing, error) {
	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	listings, err := uc.listingRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, remoteError(err)
	}
	if listings == nil {
		listings = []*entity.Listing{}
	}
	return listings, nil
}

func (uc *ListingUseCase) GetListing(ctx context.Context, ownerID, docID string) (*entity.Listing, error) {
	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	return uc.ownedListing(ctx, ownerID, docID)
}

func (uc *ListingUseCase) ownedListing(ctx context.Context, ownerID, docID string) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, remoteError(err)
	}
	if listing.OwnerID != ownerID {
		return nil, errors.Forbidden("You can only change your own listings", nil)
	}
	return listing, nil
}

func (uc *ListingUseCase) deleteImages(ctx context.Context, urls []string) {
	if uc.files == nil {
		return
	}
	for _, url := range urls {
		if err := uc.files.DeleteFile(ctx, url); err != nil {
			logger.Warn("Failed to delete listing image %s: %v", url, err)
		}
	}
}
