package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestPageFromQuery(t *testing.T) {
	tests := []struct {
		query string
		want  Page
	}{
		{"", Page{Number: 1, Size: 20}},
		{"?page=3&limit=5", Page{Number: 3, Size: 5}},
		{"?page=-1&limit=500", Page{Number: 1, Size: 20}},
		{"?page=x&limit=y", Page{Number: 1, Size: 20}},
	}
	e := echo.New()
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/listings"+tt.query, nil), httptest.NewRecorder())
		assert.Equal(t, tt.want, PageFromQuery(c), tt.query)
	}
}

func TestPageBounds(t *testing.T) {
	start, end := Page{Number: 2, Size: 5}.Bounds(7)
	assert.Equal(t, 5, start)
	assert.Equal(t, 7, end)

	start, end = Page{Number: 4, Size: 5}.Bounds(7)
	assert.Equal(t, 7, start)
	assert.Equal(t, 7, end)
}
