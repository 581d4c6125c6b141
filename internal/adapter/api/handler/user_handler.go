package handler

import (
	"github.com/labstack/echo/v4"

	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/usecase"
	"muzmates/pkg/errors"
	"muzmates/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
	authUseCase *usecase.AuthUseCase
	notify      ProgressNotifier
}

func NewUserHandler(userUseCase *usecase.UserUseCase, authUseCase *usecase.AuthUseCase, notify ProgressNotifier) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		authUseCase: authUseCase,
		notify:      notify,
	}
}

type updateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Gender    string `json:"gender"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

func (h *UserHandler) GetMe(c echo.Context) error {
	profile, err := h.userUseCase.GetProfile(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, profile)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	profile, err := h.userUseCase.UpdateProfile(c.Request().Context(), middleware.UserID(c), usecase.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Gender:    req.Gender,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, profile)
}

func (h *UserHandler) DeleteMe(c echo.Context) error {
	var req deleteAccountRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := h.authUseCase.DeleteAccount(c.Request().Context(), middleware.UserID(c), req.Password); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{
		"message": "Account deleted",
	})
}

func (h *UserHandler) UploadPicture(c echo.Context) error {
	uid := middleware.UserID(c)

	header, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("File is required", err))
	}

	profile, err := h.userUseCase.UploadProfilePicture(c.Request().Context(), uid, toUploadFile(header), func(pct float64) {
		if h.notify != nil {
			h.notify(uid, "profilePicture", pct)
		}
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, profile)
}
