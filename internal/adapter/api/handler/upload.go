package handler

import (
	"io"
	"mime/multipart"

	"github.com/labstack/echo/v4"

	"muzmates/internal/usecase"
	"muzmates/pkg/errors"
)

// ProgressNotifier pushes upload progress of uid to its connected sessions.
type ProgressNotifier func(uid, target string, pct float64)

func toUploadFile(header *multipart.FileHeader) usecase.UploadFile {
	return usecase.UploadFile{
		Name: header.Filename,
		Size: header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

// formFiles collects every file sent under field.
func formFiles(c echo.Context, field string) ([]usecase.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.BadRequest("Expected a multipart form", err)
	}

	headers := form.File[field]
	files := make([]usecase.UploadFile, 0, len(headers))
	for _, header := range headers {
		files = append(files, toUploadFile(header))
	}
	return files, nil
}
