package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a 1-based page of Size items.
type Page struct {
	Number int
	Size   int
}

// PageFromQuery reads ?page= and ?limit=, falling back to page 1 of defaultPageSize.
func PageFromQuery(c echo.Context) Page {
	number, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("limit"))

	if number <= 0 {
		number = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return Page{Number: number, Size: size}
}

// Bounds returns the slice bounds of the page within total items. A page past the end is empty.
func (p Page) Bounds(total int) (start, end int) {
	start = (p.Number - 1) * p.Size
	if start > total {
		start = total
	}
	end = start + p.Size
	if end > total {
		end = total
	}
	return start, end
}
