package storage

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestSniffContentTypeKeepsStream(t *testing.T) {
	body := append(append([]byte{}, pngHeader...), []byte(strings.Repeat("p", 5000))...)

	contentType, rest, err := SniffContentType(strings.NewReader(string(body)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	all, err := io.ReadAll(rest)
	require.NoError(t, err)
	assert.Equal(t, body, all)
}

func TestMediaTypes(t *testing.T) {
	assert.True(t, IsImage("image/jpeg"))
	assert.True(t, IsListingMedia("video/mp4"))
	assert.False(t, IsImage("video/mp4"))
	assert.False(t, IsListingMedia("text/plain; charset=utf-8"))
}

func TestObjectPaths(t *testing.T) {
	path := ListingImagePath("u1", "My Room.jpg")
	assert.True(t, strings.HasPrefix(path, "listingImages/u1/"))
	assert.True(t, strings.HasSuffix(path, "-My_Room.jpg"))

	now := time.UnixMilli(1700000000000)
	assert.Equal(t, "profilePictures/u1/1700000000000-me.png", ProfilePicturePath("u1", "/tmp/me.png", now))
	assert.Equal(t, "profilePictures/u1/1700000000000-upload", ProfilePicturePath("u1", "", now))
}
