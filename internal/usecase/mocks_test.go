package usecase

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"muzmates/internal/domain/entity"
	"muzmates/internal/domain/service"
)

type mockListingRepo struct{ mock.Mock }

func (m *mockListingRepo) Create(ctx context.Context, listing *entity.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *mockListingRepo) GetByID(ctx context.Context, docID string) (*entity.Listing, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *mockListingRepo) Update(ctx context.Context, docID string, fields map[string]interface{}) error {
	args := m.Called(ctx, docID, fields)
	return args.Error(0)
}

func (m *mockListingRepo) Delete(ctx context.Context, docID string) error {
	args := m.Called(ctx, docID)
	return args.Error(0)
}

func (m *mockListingRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Listing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Listing), args.Error(1)
}

func (m *mockListingRepo) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, profile *entity.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, docID string) (*entity.UserProfile, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserProfile), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, docID string, fields map[string]interface{}) error {
	args := m.Called(ctx, docID, fields)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, docID string) error {
	args := m.Called(ctx, docID)
	return args.Error(0)
}

type mockAuthClient struct{ mock.Mock }

func (m *mockAuthClient) CreateUser(ctx context.Context, email, password string) (*entity.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Identity), args.Error(1)
}

func (m *mockAuthClient) DeleteUser(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *mockAuthClient) GetUser(ctx context.Context, uid string) (*entity.Identity, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Identity), args.Error(1)
}

func (m *mockAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockAuthClient) SignInWithEmailPassword(ctx context.Context, email, password string) (string, *entity.AuthTokens, error) {
	args := m.Called(ctx, email, password)
	var tokens *entity.AuthTokens
	if t := args.Get(1); t != nil {
		tokens = t.(*entity.AuthTokens)
	}
	return args.String(0), tokens, args.Error(2)
}

func (m *mockAuthClient) SendPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// fakeFiles completes every upload immediately with a fixed progress sequence.
type fakeFiles struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	deleted  []string
	failWith error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{uploaded: make(map[string][]byte)}
}

func (f *fakeFiles) Upload(ctx context.Context, src io.Reader, size int64, contentType, objectPath string) service.UploadTask {
	data, _ := io.ReadAll(src)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return newFakeTask("", f.failWith, 0)
	}
	f.uploaded[objectPath] = data
	return newFakeTask("https://storage.googleapis.com/muzmates-test/"+objectPath, nil, 0, 50, 100)
}

func (f *fakeFiles) DeleteFile(ctx context.Context, fileURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func (f *fakeFiles) Close() error { return nil }

func (f *fakeFiles) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := make([]string, 0, len(f.uploaded))
	for p := range f.uploaded {
		paths = append(paths, p)
	}
	return paths
}

type fakeTask struct {
	progress chan float64
	url      string
	err      error
}

func newFakeTask(url string, err error, steps ...float64) *fakeTask {
	progress := make(chan float64, len(steps))
	for _, s := range steps {
		progress <- s
	}
	close(progress)
	return &fakeTask{progress: progress, url: url, err: err}
}

func (t *fakeTask) Progress() <-chan float64 { return t.progress }
func (t *fakeTask) Wait() (string, error)    { return t.url, t.err }
func (t *fakeTask) Cancel()                  {}

type fakePlaces struct {
	details *entity.PlaceDetails
	err     error
}

func (f *fakePlaces) Autocomplete(ctx context.Context, input string) ([]entity.PlaceSuggestion, error) {
	return []entity.PlaceSuggestion{{PlaceID: "p1", Text: input}}, f.err
}

func (f *fakePlaces) Details(ctx context.Context, placeID string) (*entity.PlaceDetails, error) {
	return f.details, f.err
}

// pngBytes is a minimal PNG header followed by padding, enough for content sniffing.
var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}, make([]byte, 64)...)

func memFile(name string, data []byte) UploadFile {
	return UploadFile{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
