package usecase

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"muzmates/internal/domain/entity"
	"muzmates/pkg/errors"
)

const (
	msgFillAllFields     = "Please fill in all the fields!"
	msgImageRequired     = "Please upload at least one image to continue!"
	msgTooManyImages     = "You can only select up to 5 images."
	msgPriceNotNumber    = "Listing price must be a number."
	msgDescriptionLength = "Description must be at most 500 characters."
	msgInvalidImage      = "Listing images must be uploaded files."
	msgGenderImmutable   = "Gender cannot be changed."
	msgInvalidGender     = "Please select a gender."
	msgInvalidEmail      = "please enter a valid email"
	msgWeakPassword      = "Password must be at least 6 characters."
	msgSelectCity        = "Select a City, Please"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ListingInput is the user-editable part of a listing. Fields are ordered so the first
// failing rule produces the message the app shows for it.
type ListingInput struct {
	ListingName        string   `json:"listingName" validate:"required"`
	ListingAddress     string   `json:"listingAddress" validate:"required"`
	ListingPrice       string   `json:"listingPrice" validate:"required"`
	NumberOfBeds       int      `json:"numberOfBeds" validate:"gt=0"`
	NumberOfBaths      int      `json:"numberOfBaths" validate:"gt=0"`
	ListingImages      []string `json:"listingImages" validate:"min=1,max=5,dive,required,url"`
	ListingDescription string   `json:"listingDescription" validate:"max=500"`
	ListingLat         *float64 `json:"listingLat"`
	ListingLon         *float64 `json:"listingLon"`
}

// validateListing checks input and returns the parsed price.
func validateListing(input *ListingInput) (float64, error) {
	input.ListingName = strings.TrimSpace(input.ListingName)
	input.ListingAddress = strings.TrimSpace(input.ListingAddress)
	input.ListingPrice = strings.TrimSpace(input.ListingPrice)

	if err := validate.Struct(input); err != nil {
		return 0, errors.Validation(listingMessage(err))
	}

	price, err := entity.ParsePrice(input.ListingPrice)
	if err != nil {
		return 0, errors.Validation(msgPriceNotNumber)
	}
	return price, nil
}

func listingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return msgFillAllFields
	}

	fe := verrs[0]
	switch {
	case fe.Field() == "listingImages" && fe.Tag() == "min":
		return msgImageRequired
	case fe.Field() == "listingImages" && fe.Tag() == "max":
		return msgTooManyImages
	case strings.HasPrefix(fe.Field(), "listingImages["):
		return msgInvalidImage
	case fe.Field() == "listingDescription":
		return msgDescriptionLength
	}
	return msgFillAllFields
}

type ProfileInput struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Gender    string `json:"gender" validate:"required,oneof=male female"`
	Email     string `json:"email" validate:"required,email"`
}

func validateProfile(input *ProfileInput) error {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Gender = strings.ToLower(strings.TrimSpace(input.Gender))
	input.Email = strings.TrimSpace(input.Email)

	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "gender":
				return errors.Validation(msgInvalidGender)
			case "email":
				return errors.Validation(msgInvalidEmail)
			}
		}
		return errors.Validation(msgFillAllFields)
	}
	return nil
}
