package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muzmates/internal/domain/entity"
)

var pngHeader = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}, make([]byte, 64)...)

func multipartBody(t *testing.T, field string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range names {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(pngHeader)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (f *apiFixture) upload(t *testing.T, path, field string, names ...string) *httptest.ResponseRecorder {
	body, contentType := multipartBody(t, field, names...)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(echo.HeaderAuthorization, "Bearer tok-u1")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestUploadDraftImages(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.upload(t, "/v1/drafts/me/images", "files", "a.png", "b.png")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var draft entity.ListingDraft
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &draft))
	assert.Len(t, draft.ListingImages, 2)
	assert.Equal(t, 100.0, draft.UploadProgress)
	assert.Len(t, f.files.paths, 2)
}

func TestUploadDraftImagesRejectsSixth(t *testing.T) {
	f := newAPIFixture(t)
	for i := 0; i < entity.MaxListingImages; i++ {
		_, err := f.drafts.AddImage("u1", "https://img.example.com/x.png")
		require.NoError(t, err)
	}

	rec := f.upload(t, "/v1/drafts/me/images", "files", "f.png")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You can only select up to 5 images.", decode(t, rec).Error.Message)
	assert.Empty(t, f.files.paths)
}

func TestRemoveDraftImage(t *testing.T) {
	f := newAPIFixture(t)
	_, _ = f.drafts.AddImage("u1", "https://img.example.com/a.png")
	_, _ = f.drafts.AddImage("u1", "https://img.example.com/b.png")

	rec := f.do(http.MethodDelete, "/v1/drafts/me/images", "tok-u1", `{"url":"https://img.example.com/a.png"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"https://img.example.com/b.png"}, f.drafts.Get("u1").ListingImages)
}

func TestSelectPlaceWithoutLookupKeepsText(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPut, "/v1/drafts/me/place", "tok-u1", `{"placeId":"p1","text":"Hollywood, Los Angeles"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	address := f.drafts.Get("u1").ListingAddress
	require.NotNil(t, address)
	assert.Equal(t, "Hollywood, Los Angeles", *address)
}

func TestSelectPlaceRequiresInput(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPut, "/v1/drafts/me/place", "tok-u1", `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Select a City, Please", decode(t, rec).Error.Message)
}

func TestAutocompleteWithoutPlacesKey(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/v1/places/autocomplete?input=Holly", "tok-u1", "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "PLACES_DISABLED", decode(t, rec).Error.Code)
}

func TestDraftIsPerIdentity(t *testing.T) {
	f := newAPIFixture(t)
	_, _ = f.drafts.AddImage("u1", "https://img.example.com/a.png")

	rec := f.do(http.MethodGet, "/v1/drafts/me", "tok-u2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"listingImages":[],"listingAddress":null,"listingLat":0,"listingLon":0,"uploadProgress":0}`, string(decode(t, rec).Data))
}
