package usecase

import (
	"context"
	"strings"
	"time"

	"muzmates/internal/domain/entity"
	"muzmates/internal/domain/service"
	"muzmates/internal/infrastructure/storage"
	"muzmates/pkg/errors"
	"muzmates/pkg/logger"
)

type DraftUseCase struct {
	drafts         *DraftStore
	files          service.FileUploadService
	places         service.PlaceLookupService
	timeout        time.Duration
	maxUploadBytes int64
}

func NewDraftUseCase(drafts *DraftStore, files service.FileUploadService, places service.PlaceLookupService, timeout time.Duration, maxUploadBytes int64) *DraftUseCase {
	return &DraftUseCase{
		drafts:         drafts,
		files:          files,
		places:         places,
		timeout:        timeout,
		maxUploadBytes: maxUploadBytes,
	}
}

func (uc *DraftUseCase) Get(uid string) entity.ListingDraft {
	return uc.drafts.Get(uid)
}

func (uc *DraftUseCase) Reset(uid string) {
	uc.drafts.Reset(uid)
}

func (uc *DraftUseCase) RemoveImage(uid, url string) entity.ListingDraft {
	return uc.drafts.RemoveImage(uid, url)
}

// UploadListingImages uploads files one after another into listingImages/{uid} and
// appends each URL to the draft as soon as it resolves. The whole pick is rejected up
// front when it would exceed five images.
func (uc *DraftUseCase) UploadListingImages(ctx context.Context, uid string, files []UploadFile) (entity.ListingDraft, error) {
	if len(files) == 0 {
		return entity.ListingDraft{}, errors.Validation(msgImageRequired)
	}
	if len(files) > uc.drafts.Remaining(uid) {
		return entity.ListingDraft{}, errors.Validation(msgTooManyImages)
	}
	for _, file := range files {
		if uc.maxUploadBytes > 0 && file.Size > uc.maxUploadBytes {
			return entity.ListingDraft{}, errors.Validation("File is too large.")
		}
	}

	for _, file := range files {
		if err := uc.uploadOne(ctx, uid, file); err != nil {
			return uc.drafts.Get(uid), err
		}
	}

	return uc.drafts.Get(uid), nil
}

func (uc *DraftUseCase) uploadOne(ctx context.Context, uid string, file UploadFile) error {
	src, err := file.Open()
	if err != nil {
		return errors.BadRequest("Failed to read uploaded file", err)
	}
	defer src.Close()

	contentType, body, err := storage.SniffContentType(src)
	if err != nil {
		return errors.BadRequest("Failed to read uploaded file", err)
	}
	if !storage.IsListingMedia(contentType) {
		return errors.Validation("Only images and videos can be uploaded.")
	}

	uc.drafts.SetProgress(uid, 0)
	url, err := runUpload(ctx, uc.files, body, file.Size, contentType, storage.ListingImagePath(uid, file.Name), func(pct float64) {
		uc.drafts.SetProgress(uid, pct)
	})
	if err != nil {
		return err
	}

	if _, err := uc.drafts.AddImage(uid, url); err != nil {
		return err
	}
	return nil
}

func (uc *DraftUseCase) Autocomplete(ctx context.Context, input string) ([]entity.PlaceSuggestion, error) {
	if uc.places == nil {
		return nil, errors.New("PLACES_DISABLED", "Place search is not configured", 503, nil)
	}

	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	suggestions, err := uc.places.Autocomplete(ctx, input)
	if err != nil {
		return nil, errors.Remote("Place search failed, please try again", err)
	}
	return suggestions, nil
}

// SelectPlace sets the draft address from a picked suggestion. The formatted address
// from the details lookup wins; if the lookup fails the typed text is kept.
func (uc *DraftUseCase) SelectPlace(ctx context.Context, uid, placeID, text string) (entity.ListingDraft, error) {
	placeID = strings.TrimSpace(placeID)
	address := strings.TrimSpace(text)
	var lat, lon *float64

	if placeID != "" && uc.places != nil {
		ctx, cancel := withTimeout(ctx, uc.timeout)
		details, err := uc.places.Details(ctx, placeID)
		cancel()

		if err != nil {
			logger.Warn("Place details lookup for %s failed: %v", placeID, err)
		} else {
			if details.FormattedAddress != "" {
				address = details.FormattedAddress
			}
			lat, lon = details.Lat, details.Lon
		}
	}

	if address == "" {
		return entity.ListingDraft{}, errors.Validation(msgSelectCity)
	}

	return uc.drafts.SetPlace(uid, address, lat, lon), nil
}
