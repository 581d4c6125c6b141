package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"muzmates/internal/adapter/api"
	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/domain/entity"
	"muzmates/internal/domain/service"
	"muzmates/internal/infrastructure/realtime/realtimetest"
	"muzmates/internal/usecase"
	"muzmates/pkg/errors"
	"muzmates/pkg/response"
)

type memListings struct {
	mu    sync.Mutex
	items map[string]*entity.Listing
	seq   int
}

func newMemListings() *memListings {
	return &memListings{items: make(map[string]*entity.Listing)}
}

func (m *memListings) Create(ctx context.Context, listing *entity.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	listing.DocID = fmt.Sprintf("l%d", m.seq)
	stored := *listing
	m.items[listing.DocID] = &stored
	return nil
}

func (m *memListings) GetByID(ctx context.Context, docID string) (*entity.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	listing, ok := m.items[docID]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	out := *listing
	return &out, nil
}

func (m *memListings) Update(ctx context.Context, docID string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	listing, ok := m.items[docID]
	if !ok {
		return errors.NotFound("Listing", nil)
	}
	if name, ok := fields["listingName"].(string); ok {
		listing.ListingName = name
	}
	if price, ok := fields["listingPrice"].(float64); ok {
		listing.ListingPrice = price
	}
	return nil
}

func (m *memListings) Delete(ctx context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, docID)
	return nil
}

func (m *memListings) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Listing
	for _, listing := range m.items {
		if listing.OwnerID == ownerID {
			copied := *listing
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memListings) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for id, listing := range m.items {
		if listing.OwnerID == ownerID {
			delete(m.items, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memListings) all() []*entity.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Listing, 0, len(m.items))
	for _, listing := range m.items {
		copied := *listing
		out = append(out, &copied)
	}
	return out
}

type memUsers struct {
	mu    sync.Mutex
	items map[string]*entity.UserProfile
}

func newMemUsers(profiles ...*entity.UserProfile) *memUsers {
	m := &memUsers{items: make(map[string]*entity.UserProfile)}
	for _, p := range profiles {
		m.items[p.UserID] = p
	}
	return m
}

func (m *memUsers) Create(ctx context.Context, profile *entity.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile.DocID = profile.UserID
	m.items[profile.UserID] = profile
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, docID string) (*entity.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.items[docID]
	if !ok {
		return nil, errors.NotFound("User profile", nil)
	}
	out := *profile
	return &out, nil
}

func (m *memUsers) Update(ctx context.Context, docID string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.items[docID]
	if !ok {
		return errors.NotFound("User profile", nil)
	}
	if url, ok := fields["profilePicture"].(string); ok {
		profile.ProfilePicture = &url
	}
	return nil
}

func (m *memUsers) Delete(ctx context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, docID)
	return nil
}

// stubFiles completes uploads at once.
type stubFiles struct {
	mu    sync.Mutex
	paths []string
}

func (s *stubFiles) Upload(ctx context.Context, src io.Reader, size int64, contentType, objectPath string) service.UploadTask {
	_, _ = io.Copy(io.Discard, src)
	s.mu.Lock()
	s.paths = append(s.paths, objectPath)
	s.mu.Unlock()

	progress := make(chan float64, 1)
	progress <- 100
	close(progress)
	return &stubTask{progress: progress, url: "https://storage.googleapis.com/test-bucket/" + objectPath}
}

func (s *stubFiles) DeleteFile(ctx context.Context, fileURL string) error { return nil }
func (s *stubFiles) Close() error                                         { return nil }

type stubTask struct {
	progress chan float64
	url      string
}

func (t *stubTask) Progress() <-chan float64 { return t.progress }
func (t *stubTask) Wait() (string, error)    { return t.url, nil }
func (t *stubTask) Cancel()                  {}

// stubVerifier maps tokens to uids.
type stubVerifier map[string]string

func (v stubVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	uid, ok := v[token]
	if !ok {
		return "", errors.Unauthorized("bad token", nil)
	}
	return uid, nil
}

func (v stubVerifier) ResolveIdentity(ctx context.Context, token string) (*entity.Identity, error) {
	uid, err := v.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &entity.Identity{ID: uid, Email: uid + "@example.com"}, nil
}

type apiFixture struct {
	e            *echo.Echo
	listings     *memListings
	users        *memUsers
	files        *stubFiles
	drafts       *usecase.DraftStore
	catalog      *usecase.CatalogStore
	listingFeed  *realtimetest.Feed[*entity.Listing]
	userFeed     *realtimetest.Feed[*entity.UserProfile]
	listing      *ListingHandler
	draft        *DraftHandler
	auth         *middleware.AuthMiddleware
	verifier     stubVerifier
	draftUseCase *usecase.DraftUseCase
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{
		e:           echo.New(),
		listings:    newMemListings(),
		users:       newMemUsers(&entity.UserProfile{DocID: "u1", UserID: "u1", FirstName: "Amina", LastName: "Khan", Gender: "female", Email: "amina@example.com"}),
		files:       &stubFiles{},
		drafts:      usecase.NewDraftStore(),
		listingFeed: realtimetest.NewFeed[*entity.Listing](),
		userFeed:    realtimetest.NewFeed[*entity.UserProfile](),
		verifier:    stubVerifier{"tok-u1": "u1", "tok-u2": "u2"},
	}
	f.e.Validator = api.NewValidator()
	f.catalog = usecase.NewCatalogStore(f.listingFeed, f.userFeed)
	f.draftUseCase = usecase.NewDraftUseCase(f.drafts, f.files, nil, time.Second, 1<<20)
	f.listing = NewListingHandler(usecase.NewListingUseCase(f.listings, f.users, f.files, time.Second), f.draftUseCase, f.catalog)
	f.draft = NewDraftHandler(f.draftUseCase)
	f.auth = middleware.NewAuthMiddleware(f.verifier)

	f.e.GET("/v1/listings", f.listing.ListCatalog)
	mine := f.e.Group("/v1/my-listings", f.auth.Authenticate)
	mine.GET("", f.listing.ListMine)
	mine.POST("", f.listing.Create)
	mine.PUT("/:id", f.listing.Update)
	mine.DELETE("/:id", f.listing.Delete)
	drafts := f.e.Group("/v1/drafts", f.auth.Authenticate)
	drafts.GET("/me", f.draft.Get)
	drafts.POST("/me/images", f.draft.UploadImages)
	drafts.DELETE("/me/images", f.draft.RemoveImage)
	drafts.PUT("/me/place", f.draft.SelectPlace)
	f.e.GET("/v1/places/autocomplete", f.draft.Autocomplete, f.auth.Authenticate)

	return f
}

// runCatalog starts the catalog store for the duration of the test.
func (f *apiFixture) runCatalog(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = f.catalog.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
