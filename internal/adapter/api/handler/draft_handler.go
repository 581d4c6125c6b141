package handler

import (
	"github.com/labstack/echo/v4"

	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/usecase"
	"muzmates/pkg/errors"
	"muzmates/pkg/response"
)

// DraftHandler serves the caller's in-progress listing and the place search that fills it.
type DraftHandler struct {
	draftUseCase *usecase.DraftUseCase
}

func NewDraftHandler(draftUseCase *usecase.DraftUseCase) *DraftHandler {
	return &DraftHandler{
		draftUseCase: draftUseCase,
	}
}

type removeImageRequest struct {
	URL string `json:"url" validate:"required"`
}

type selectPlaceRequest struct {
	PlaceID string `json:"placeId"`
	Text    string `json:"text"`
}

func (h *DraftHandler) Get(c echo.Context) error {
	return response.Success(c, h.draftUseCase.Get(middleware.UserID(c)))
}

func (h *DraftHandler) Reset(c echo.Context) error {
	uid := middleware.UserID(c)
	h.draftUseCase.Reset(uid)
	return response.Success(c, h.draftUseCase.Get(uid))
}

func (h *DraftHandler) UploadImages(c echo.Context) error {
	files, err := formFiles(c, "files")
	if err != nil {
		return response.Error(c, err)
	}

	draft, err := h.draftUseCase.UploadListingImages(c.Request().Context(), middleware.UserID(c), files)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, draft)
}

func (h *DraftHandler) RemoveImage(c echo.Context) error {
	var req removeImageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, h.draftUseCase.RemoveImage(middleware.UserID(c), req.URL))
}

func (h *DraftHandler) SelectPlace(c echo.Context) error {
	var req selectPlaceRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	draft, err := h.draftUseCase.SelectPlace(c.Request().Context(), middleware.UserID(c), req.PlaceID, req.Text)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, draft)
}

func (h *DraftHandler) Autocomplete(c echo.Context) error {
	suggestions, err := h.draftUseCase.Autocomplete(c.Request().Context(), c.QueryParam("input"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, suggestions)
}
