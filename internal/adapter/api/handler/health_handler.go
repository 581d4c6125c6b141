package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"muzmates/internal/usecase"
)

// ConnectionTester is implemented by the Firebase auth client.
type ConnectionTester interface {
	TestConnection(ctx context.Context) error
}

type HealthHandler struct {
	firebaseAuth ConnectionTester
	catalog      *usecase.CatalogStore
}

var healthHandler *HealthHandler

func NewHealthHandler(firebaseAuth ConnectionTester, catalog *usecase.CatalogStore) *HealthHandler {
	return &HealthHandler{
		firebaseAuth: firebaseAuth,
		catalog:      catalog,
	}
}

func SetupHealthHandler(firebaseAuth ConnectionTester, catalog *usecase.CatalogStore) {
	healthHandler = NewHealthHandler(firebaseAuth, catalog)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "Server is running",
		"time":    time.Now().Format(time.RFC3339),
		"catalog": h.catalog.Status(),
	})
}

func (h *HealthHandler) CheckFirebaseHealth(c echo.Context) error {
	err := h.firebaseAuth.TestConnection(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "Firebase Auth connection failed",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Firebase Auth connected successfully",
	})
}
