package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"muzmates/internal/domain/entity"
	"muzmates/pkg/errors"
)

func aminaProfile() *entity.UserProfile {
	return &entity.UserProfile{
		DocID:     "u1",
		UserID:    "u1",
		FirstName: "Amina",
		LastName:  "Khan",
		Gender:    "female",
		Email:     "amina@example.com",
	}
}

func TestUpdateProfileRejectsGenderChange(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByID", mock.Anything, "u1").Return(aminaProfile(), nil)
	uc := NewUserUseCase(users, newFakeFiles(), time.Second, 0)

	_, err := uc.UpdateProfile(context.Background(), "u1", UpdateProfileInput{Gender: "male"})

	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfileMergesProvidedFields(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByID", mock.Anything, "u1").Return(aminaProfile(), nil)
	users.On("Update", mock.Anything, "u1", map[string]interface{}{
		"firstName": "Amina",
		"lastName":  "Rahman",
		"email":     "amina@example.com",
	}).Return(nil)
	uc := NewUserUseCase(users, newFakeFiles(), time.Second, 0)

	profile, err := uc.UpdateProfile(context.Background(), "u1", UpdateProfileInput{LastName: "Rahman", Gender: "Female"})

	require.NoError(t, err)
	assert.Equal(t, "Rahman", profile.LastName)
	users.AssertExpectations(t)
}

func TestCreateProfileValidatesGender(t *testing.T) {
	users := new(mockUserRepo)
	uc := NewUserUseCase(users, newFakeFiles(), time.Second, 0)

	_, err := uc.CreateProfile(context.Background(), "u1", ProfileInput{
		FirstName: "Amina", LastName: "Khan", Gender: "other", Email: "amina@example.com",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please select a gender.")
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUploadProfilePicture(t *testing.T) {
	users := new(mockUserRepo)
	files := newFakeFiles()
	uc := NewUserUseCase(users, files, time.Second, 1<<20)
	uc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	var written map[string]interface{}
	users.On("Update", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(2).(map[string]interface{}) }).
		Return(nil)
	users.On("GetByID", mock.Anything, "u1").Return(aminaProfile(), nil)

	var progress []float64
	_, err := uc.UploadProfilePicture(context.Background(), "u1", memFile("me.png", pngBytes), func(pct float64) {
		progress = append(progress, pct)
	})

	require.NoError(t, err)
	assert.Equal(t, []float64{0, 50, 100}, progress)
	assert.Equal(t, "https://storage.googleapis.com/muzmates-test/profilePictures/u1/1700000000000-me.png", written["profilePicture"])
	assert.Equal(t, time.UnixMilli(1700000000000), written["updatedAt"])
}

func TestUploadProfilePictureRejectsNonImages(t *testing.T) {
	users := new(mockUserRepo)
	files := newFakeFiles()
	uc := NewUserUseCase(users, files, time.Second, 1<<20)

	_, err := uc.UploadProfilePicture(context.Background(), "u1", memFile("notes.txt", []byte(strings.Repeat("hello ", 20))), nil)

	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
	assert.Empty(t, files.paths())
}
