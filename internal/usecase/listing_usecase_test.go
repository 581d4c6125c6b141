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

func validListingInput() ListingInput {
	return ListingInput{
		ListingName:        "Sunny room",
		ListingAddress:     "Hollywood, Los Angeles, CA, USA",
		ListingPrice:       "1200",
		NumberOfBeds:       2,
		NumberOfBaths:      1,
		ListingImages:      []string{"https://storage.googleapis.com/b/listingImages/u1/a.jpg"},
		ListingDescription: "Close to the masjid.",
	}
}

func newListingUseCase() (*ListingUseCase, *mockListingRepo, *mockUserRepo, *fakeFiles) {
	listings := new(mockListingRepo)
	users := new(mockUserRepo)
	files := newFakeFiles()
	return NewListingUseCase(listings, users, files, time.Second), listings, users, files
}

func TestCreateListingSetsModerationFlags(t *testing.T) {
	uc, listings, users, _ := newListingUseCase()
	users.On("GetByID", mock.Anything, "u1").Return(&entity.UserProfile{UserID: "u1", Gender: "female"}, nil)
	listings.On("Create", mock.Anything, mock.AnythingOfType("*entity.Listing")).
		Run(func(args mock.Arguments) { args.Get(1).(*entity.Listing).DocID = "l1" }).
		Return(nil)

	listing, err := uc.CreateListing(context.Background(), "u1", validListingInput())

	require.NoError(t, err)
	assert.Equal(t, "l1", listing.DocID)
	assert.Equal(t, "u1", listing.OwnerID)
	assert.Equal(t, 1200.0, listing.ListingPrice)
	assert.Equal(t, "female", listing.ListingGender)
	assert.True(t, listing.IsPending)
	assert.False(t, listing.IsApproved)
	assert.False(t, listing.IsRejected)
	assert.True(t, listing.CreatedAt.IsZero(), "createdAt is assigned by the server")
	listings.AssertExpectations(t)
}

func TestCreateListingWithoutProfileLeavesGenderEmpty(t *testing.T) {
	uc, listings, users, _ := newListingUseCase()
	users.On("GetByID", mock.Anything, "u1").Return(nil, errors.NotFound("User profile", nil))
	listings.On("Create", mock.Anything, mock.Anything).Return(nil)

	listing, err := uc.CreateListing(context.Background(), "u1", validListingInput())

	require.NoError(t, err)
	assert.Empty(t, listing.ListingGender)
}

func TestCreateListingRejectsInvalidInputWithoutRemoteCalls(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ListingInput)
		message string
	}{
		{"missing name", func(in *ListingInput) { in.ListingName = "  " }, "Please fill in all the fields!"},
		{"missing address", func(in *ListingInput) { in.ListingAddress = "" }, "Please fill in all the fields!"},
		{"missing price", func(in *ListingInput) { in.ListingPrice = "" }, "Please fill in all the fields!"},
		{"zero beds", func(in *ListingInput) { in.NumberOfBeds = 0 }, "Please fill in all the fields!"},
		{"zero baths", func(in *ListingInput) { in.NumberOfBaths = 0 }, "Please fill in all the fields!"},
		{"no images", func(in *ListingInput) { in.ListingImages = nil }, "Please upload at least one image to continue!"},
		{"six images", func(in *ListingInput) {
			in.ListingImages = []string{"https://i/1", "https://i/2", "https://i/3", "https://i/4", "https://i/5", "https://i/6"}
		}, "You can only select up to 5 images."},
		{"price not a number", func(in *ListingInput) { in.ListingPrice = "12OO" }, "Listing price must be a number."},
		{"price NaN", func(in *ListingInput) { in.ListingPrice = "NaN" }, "Listing price must be a number."},
		{"long description", func(in *ListingInput) { in.ListingDescription = strings.Repeat("é", 501) }, "Description must be at most 500 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, listings, users, _ := newListingUseCase()
			input := validListingInput()
			tt.mutate(&input)

			_, err := uc.CreateListing(context.Background(), "u1", input)

			require.Error(t, err)
			assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
			assert.Contains(t, err.Error(), tt.message)
			listings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateListingAcceptsFiveHundredCharacters(t *testing.T) {
	uc, listings, users, _ := newListingUseCase()
	users.On("GetByID", mock.Anything, "u1").Return(&entity.UserProfile{UserID: "u1"}, nil)
	listings.On("Create", mock.Anything, mock.Anything).Return(nil)
	input := validListingInput()
	input.ListingDescription = strings.Repeat("é", 500)
	input.ListingPrice = " 950.50 "

	listing, err := uc.CreateListing(context.Background(), "u1", input)

	require.NoError(t, err)
	assert.Equal(t, 950.5, listing.ListingPrice)
}

func TestUpdateListingNeverWritesModerationFlags(t *testing.T) {
	uc, listings, _, _ := newListingUseCase()
	listings.On("GetByID", mock.Anything, "l1").Return(&entity.Listing{DocID: "l1", OwnerID: "u1", IsApproved: true}, nil)

	var written map[string]interface{}
	listings.On("Update", mock.Anything, "l1", mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(2).(map[string]interface{}) }).
		Return(nil)

	input := validListingInput()
	input.ListingPrice = "1500"
	listing, err := uc.UpdateListing(context.Background(), "u1", "l1", input)

	require.NoError(t, err)
	assert.Equal(t, 1500.0, written["listingPrice"])
	for _, key := range []string{"isPending", "isApproved", "isRejected", "id", "listingGender", "createdAt"} {
		assert.NotContains(t, written, key)
	}
	assert.True(t, listing.IsApproved)
	assert.Equal(t, 1500.0, listing.ListingPrice)
}

func TestUpdateListingEnforcesOwnership(t *testing.T) {
	uc, listings, _, _ := newListingUseCase()
	listings.On("GetByID", mock.Anything, "l1").Return(&entity.Listing{DocID: "l1", OwnerID: "someone-else"}, nil)

	_, err := uc.UpdateListing(context.Background(), "u1", "l1", validListingInput())

	assert.True(t, errors.Is(err, "FORBIDDEN"))
	listings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateListingValidatesBeforeLookup(t *testing.T) {
	uc, listings, _, _ := newListingUseCase()
	input := validListingInput()
	input.NumberOfBaths = 0

	_, err := uc.UpdateListing(context.Background(), "u1", "l1", input)

	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
	listings.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestDeleteListingRemovesImages(t *testing.T) {
	uc, listings, _, files := newListingUseCase()
	images := []string{"https://storage.googleapis.com/b/listingImages/u1/a.jpg", "https://storage.googleapis.com/b/listingImages/u1/b.jpg"}
	listings.On("GetByID", mock.Anything, "l1").Return(&entity.Listing{DocID: "l1", OwnerID: "u1", ListingImages: images}, nil)
	listings.On("Delete", mock.Anything, "l1").Return(nil)

	require.NoError(t, uc.DeleteListing(context.Background(), "u1", "l1"))

	assert.Equal(t, images, files.deleted)
}

func TestListByOwnerNeverReturnsNil(t *testing.T) {
	uc, listings, _, _ := newListingUseCase()
	listings.On("ListByOwner", mock.Anything, "u1").Return(nil, nil)

	got, err := uc.ListByOwner(context.Background(), "u1")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
