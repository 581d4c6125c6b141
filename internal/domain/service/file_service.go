package service

import (
	"context"
	"io"
)

// UploadTask is a running upload. Progress values are percentages in [0, 100], never
// decrease, and the channel is closed once the upload finishes either way.
type UploadTask interface {
	Progress() <-chan float64
	Wait() (string, error)
	Cancel()
}

type FileUploadService interface {
	Upload(ctx context.Context, src io.Reader, size int64, contentType, objectPath string) UploadTask
	DeleteFile(ctx context.Context, fileURL string) error
	Close() error
}
