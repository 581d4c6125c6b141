package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"muzmates/internal/domain/entity"
	"muzmates/internal/domain/repository"
	"muzmates/internal/domain/service"
	"muzmates/internal/infrastructure/storage"
	"muzmates/pkg/errors"
	"muzmates/pkg/logger"
)

// UploadFile is one picked file. Open may be called once.
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type UserUseCase struct {
	userRepo       repository.UserProfileRepository
	files          service.FileUploadService
	timeout        time.Duration
	maxUploadBytes int64
	now            func() time.Time
}

func NewUserUseCase(userRepo repository.UserProfileRepository, files service.FileUploadService, timeout time.Duration, maxUploadBytes int64) *UserUseCase {
	return &UserUseCase{
		userRepo:       userRepo,
		files:          files,
		timeout:        timeout,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Email     string
	Gender    string
}

// CreateProfile writes users/{identityID}.
func (uc *UserUseCase) CreateProfile(ctx context.Context, identityID string, input ProfileInput) (*entity.UserProfile, error) {
	if identityID == "" {
		return nil, errors.BadRequest("Identity id is required", nil)
	}
	if err := validateProfile(&input); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	profile := &entity.UserProfile{
		UserID:    identityID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Gender:    input.Gender,
		Email:     input.Email,
	}
	if err := uc.userRepo.Create(ctx, profile); err != nil {
		return nil, remoteError(err)
	}
	return profile, nil
}

func (uc *UserUseCase) GetProfile(ctx context.Context, uid string) (*entity.UserProfile, error) {
	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	profile, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, remoteError(err)
	}
	return profile, nil
}

// UpdateProfile changes the provided fields of users/{docID}. Gender is fixed at sign-up.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, docID string, input UpdateProfileInput) (*entity.UserProfile, error) {
	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	profile, err := uc.userRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, remoteError(err)
	}

	if gender := strings.ToLower(strings.TrimSpace(input.Gender)); gender != "" && gender != profile.Gender {
		return nil, errors.Validation(msgGenderImmutable)
	}

	merged := ProfileInput{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Gender:    profile.Gender,
		Email:     profile.Email,
	}
	if input.FirstName != "" {
		merged.FirstName = input.FirstName
	}
	if input.LastName != "" {
		merged.LastName = input.LastName
	}
	if input.Email != "" {
		merged.Email = input.Email
	}
	if err := validateProfile(&merged); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"firstName": merged.FirstName,
		"lastName":  merged.LastName,
		"email":     merged.Email,
	}
	if err := uc.userRepo.Update(ctx, docID, fields); err != nil {
		return nil, remoteError(err)
	}

	profile.FirstName = merged.FirstName
	profile.LastName = merged.LastName
	profile.Email = merged.Email
	return profile, nil
}

// UploadProfilePicture stores an image under profilePictures/{uid} and points the
// profile at it. onProgress receives the upload percentage.
func (uc *UserUseCase) UploadProfilePicture(ctx context.Context, uid string, file UploadFile, onProgress func(float64)) (*entity.UserProfile, error) {
	if uc.maxUploadBytes > 0 && file.Size > uc.maxUploadBytes {
		return nil, errors.Validation("File is too large.")
	}

	src, err := file.Open()
	if err != nil {
		return nil, errors.BadRequest("Failed to read uploaded file", err)
	}
	defer src.Close()

	contentType, body, err := storage.SniffContentType(src)
	if err != nil {
		return nil, errors.BadRequest("Failed to read uploaded file", err)
	}
	if !storage.IsImage(contentType) {
		return nil, errors.Validation("Profile picture must be an image.")
	}

	now := uc.now()
	url, err := runUpload(ctx, uc.files, body, file.Size, contentType, storage.ProfilePicturePath(uid, file.Name, now), onProgress)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	if err := uc.userRepo.Update(ctx, uid, map[string]interface{}{
		"profilePicture": url,
		"updatedAt":      now,
	}); err != nil {
		return nil, remoteError(err)
	}

	profile, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, remoteError(err)
	}
	logger.Info("Profile picture of %s updated", uid)
	return profile, nil
}

// runUpload drives one upload to completion, forwarding progress.
func runUpload(ctx context.Context, files service.FileUploadService, src io.Reader, size int64, contentType, objectPath string, onProgress func(float64)) (string, error) {
	task := files.Upload(ctx, src, size, contentType, objectPath)
	for pct := range task.Progress() {
		if onProgress != nil {
			onProgress(pct)
		}
	}

	url, err := task.Wait()
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.BadRequest("Upload cancelled", err)
		}
		return "", errors.Remote("Image upload failed", err)
	}
	return url, nil
}
