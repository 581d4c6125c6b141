package storage

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLimit matches mimetype's default read limit.
const sniffLimit = 3072

var videoTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/3gpp":      true,
	"video/webm":      true,
}

// SniffContentType detects the media type from the first bytes of src and returns a
// reader that still yields the whole stream.
func SniffContentType(src io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("failed to read file header: %w", err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	return mtype.String(), io.MultiReader(bytes.NewReader(head), src), nil
}

func IsImage(contentType string) bool {
	return strings.HasPrefix(baseType(contentType), "image/")
}

// IsListingMedia accepts images and the short video formats phones record.
func IsListingMedia(contentType string) bool {
	return IsImage(contentType) || videoTypes[baseType(contentType)]
}

func ListingImagePath(uid, filename string) string {
	return fmt.Sprintf("listingImages/%s/%s-%s", uid, uuid.New().String(), cleanName(filename))
}

func ProfilePicturePath(uid, filename string, now time.Time) string {
	return fmt.Sprintf("profilePictures/%s/%d-%s", uid, now.UnixMilli(), cleanName(filename))
}

func baseType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}

func cleanName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
