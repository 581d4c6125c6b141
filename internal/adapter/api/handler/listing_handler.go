package handler

import (
	"bytes"
	"encoding/json"

	"github.com/labstack/echo/v4"

	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/domain/entity"
	"muzmates/internal/usecase"
	"muzmates/pkg/errors"
	"muzmates/pkg/response"
	"muzmates/pkg/utils"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
	draftUseCase   *usecase.DraftUseCase
	catalog        *usecase.CatalogStore
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase, draftUseCase *usecase.DraftUseCase, catalog *usecase.CatalogStore) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
		draftUseCase:   draftUseCase,
		catalog:        catalog,
	}
}

// priceText accepts the price as typed ("1200") or as a JSON number (1200).
type priceText string

func (p *priceText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = priceText(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = priceText(n.String())
	return nil
}

type listingRequest struct {
	ListingName        string    `json:"listingName"`
	ListingAddress     string    `json:"listingAddress"`
	ListingPrice       priceText `json:"listingPrice"`
	NumberOfBeds       int       `json:"numberOfBeds"`
	NumberOfBaths      int       `json:"numberOfBaths"`
	ListingImages      []string  `json:"listingImages"`
	ListingDescription string    `json:"listingDescription"`
	ListingLat         *float64  `json:"listingLat"`
	ListingLon         *float64  `json:"listingLon"`
}

func (r listingRequest) toInput() usecase.ListingInput {
	return usecase.ListingInput{
		ListingName:        r.ListingName,
		ListingAddress:     r.ListingAddress,
		ListingPrice:       string(r.ListingPrice),
		NumberOfBeds:       r.NumberOfBeds,
		NumberOfBaths:      r.NumberOfBaths,
		ListingImages:      r.ListingImages,
		ListingDescription: r.ListingDescription,
		ListingLat:         r.ListingLat,
		ListingLon:         r.ListingLon,
	}
}

// ListCatalog serves the joined listings view kept by the catalog store.
func (h *ListingHandler) ListCatalog(c echo.Context) error {
	page := utils.PageFromQuery(c)
	listings := h.catalog.Listings()
	if listings == nil {
		listings = []entity.JoinedListing{}
	}

	start, end := page.Bounds(len(listings))
	return response.Paginated(c, listings[start:end], int64(len(listings)), page.Number, page.Size)
}

func (h *ListingHandler) ListMine(c echo.Context) error {
	listings, err := h.listingUseCase.ListByOwner(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listings)
}

// Create stores a listing. Images and address missing from the body are taken from the
// caller's draft, which is reset once the listing is written.
func (h *ListingHandler) Create(c echo.Context) error {
	uid := middleware.UserID(c)

	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	input := req.toInput()
	draft := h.draftUseCase.Get(uid)
	if input.ListingImages == nil {
		input.ListingImages = draft.ListingImages
	}
	if input.ListingAddress == "" && draft.ListingAddress != nil {
		input.ListingAddress = *draft.ListingAddress
		if input.ListingLat == nil && input.ListingLon == nil && (draft.ListingLat != 0 || draft.ListingLon != 0) {
			lat, lon := draft.ListingLat, draft.ListingLon
			input.ListingLat, input.ListingLon = &lat, &lon
		}
	}

	listing, err := h.listingUseCase.CreateListing(c.Request().Context(), uid, input)
	if err != nil {
		return response.Error(c, err)
	}

	h.draftUseCase.Reset(uid)
	return response.Created(c, listing)
}

func (h *ListingHandler) Get(c echo.Context) error {
	listing, err := h.listingUseCase.GetListing(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) Update(c echo.Context) error {
	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	listing, err := h.listingUseCase.UpdateListing(c.Request().Context(), middleware.UserID(c), c.Param("id"), req.toInput())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) Delete(c echo.Context) error {
	if err := h.listingUseCase.DeleteListing(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{
		"message": "Listing deleted",
	})
}
