package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"muzmates/internal/domain/service"
	"muzmates/pkg/logger"
)

const (
	publicURLPrefix = "https://storage.googleapis.com/"

	// uploadChunkSize bounds how much the SDK buffers before sending, so ProgressFunc
	// fires during the transfer instead of once inside Close.
	uploadChunkSize = 256 * 1024
)

type objectWriter interface {
	io.Writer
	Close() error
}

// writerFactory opens an object writer. It returns true when the writer calls sent
// with the bytes actually transferred; otherwise bytes written into it are counted.
type writerFactory func(ctx context.Context, objectPath, contentType string, sent func(int64)) (objectWriter, bool)

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string

	newWriter writerFactory
	publish   func(ctx context.Context, objectPath string) error
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	c := &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}
	c.newWriter = c.gcsWriter
	c.publish = c.makePublic
	return c, nil
}

func (c *CloudStorageClient) gcsWriter(ctx context.Context, objectPath, contentType string, sent func(int64)) (objectWriter, bool) {
	wc := c.client.Bucket(c.bucketName).Object(objectPath).NewWriter(ctx)
	configureWriter(wc, contentType, sent)
	return wc, true
}

func configureWriter(wc *storage.Writer, contentType string, sent func(int64)) {
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"
	wc.ChunkSize = uploadChunkSize
	wc.ProgressFunc = sent
}

func (c *CloudStorageClient) makePublic(ctx context.Context, objectPath string) error {
	return c.client.Bucket(c.bucketName).Object(objectPath).ACL().Set(ctx, storage.AllUsers, storage.RoleReader)
}

// Upload streams src into objectPath in the background. size is used for progress only;
// when it is unknown (<= 0) the task reports 100 once the object is stored.
func (c *CloudStorageClient) Upload(ctx context.Context, src io.Reader, size int64, contentType, objectPath string) service.UploadTask {
	ctx, cancel := context.WithCancel(ctx)
	task := newUploadTask(cancel)

	go func() {
		defer cancel()
		sent := task.sentFunc(size)
		w, tracked := c.newWriter(ctx, objectPath, contentType, sent)
		if tracked {
			sent = nil
		}
		task.run(ctx, w, src, sent, func() (string, error) {
			if err := c.publish(ctx, objectPath); err != nil {
				// Buckets with uniform access reject object ACLs; their IAM policy decides visibility.
				logger.Warn("Failed to set public ACL on %s: %v", objectPath, err)
			}
			return c.PublicURL(objectPath), nil
		})
	}()

	return task
}

func (c *CloudStorageClient) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s%s/%s", publicURLPrefix, c.bucketName, objectPath)
}

func (c *CloudStorageClient) DeleteFile(ctx context.Context, fileURL string) error {
	// Expected URL format: https://storage.googleapis.com/bucket-name/file-path
	if !strings.HasPrefix(fileURL, publicURLPrefix) {
		return fmt.Errorf("invalid GCS URL format")
	}

	parts := strings.SplitN(strings.TrimPrefix(fileURL, publicURLPrefix), "/", 2)
	if len(parts) != 2 || parts[0] != c.bucketName {
		return fmt.Errorf("invalid GCS URL format or bucket mismatch")
	}

	err := c.client.Bucket(c.bucketName).Object(parts[1]).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
