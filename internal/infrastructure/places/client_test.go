package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = data
	return nil
}

func TestAutocomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places:autocomplete", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Goog-Api-Key"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "holly", body["input"])
		assert.Equal(t, []interface{}{"locality", "sublocality", "neighborhood"}, body["includedPrimaryTypes"])

		_, _ = w.Write([]byte(`{"suggestions":[
			{"placePrediction":{"placeId":"p1","text":{"text":"Hollywood, Los Angeles, CA, USA"},
			 "structuredFormat":{"mainText":{"text":"Hollywood"},"secondaryText":{"text":"Los Angeles, CA, USA"}},
			 "types":["neighborhood"]}},
			{"placePrediction":{"place":"places/p2",
			 "structuredFormat":{"mainText":{"text":"Hollister"},"secondaryText":{"text":"CA, USA"}}}},
			{"queryPrediction":{"text":{"text":"hollyhock"}}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("key", WithBaseURL(srv.URL))
	got, err := client.Autocomplete(context.Background(), " holly ")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].PlaceID)
	assert.Equal(t, "Hollywood, Los Angeles, CA, USA", got[0].Text)
	assert.Equal(t, "p2", got[1].PlaceID)
	assert.Equal(t, "Hollister, CA, USA", got[1].Text)
}

func TestAutocompleteShortInputSkipsAPI(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	got, err := NewClient("key", WithBaseURL(srv.URL)).Autocomplete(context.Background(), "h")

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDetailsUsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/places/p1", r.URL.Path)
		assert.Equal(t, "location,formattedAddress,displayName", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"formattedAddress":"Hollywood, Los Angeles, CA, USA",
			"displayName":{"text":"Hollywood"},"location":{"latitude":34.09,"longitude":-118.33}}`))
	}))
	defer srv.Close()

	client := NewClient("key", WithBaseURL(srv.URL), WithCache(&memCache{items: map[string][]byte{}}))

	first, err := client.Details(context.Background(), "p1")
	require.NoError(t, err)
	second, err := client.Details(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first, second)
	assert.Equal(t, "Hollywood, Los Angeles, CA, USA", first.FormattedAddress)
	require.NotNil(t, first.Lat)
	assert.InDelta(t, 34.09, *first.Lat, 1e-9)
	assert.InDelta(t, -118.33, *first.Lon, 1e-9)
}

func TestDetailsWithoutLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"formattedAddress":"Somewhere"}`))
	}))
	defer srv.Close()

	got, err := NewClient("key", WithBaseURL(srv.URL)).Details(context.Background(), "p9")
	require.NoError(t, err)
	assert.Nil(t, got.Lat)
	assert.Nil(t, got.Lon)
}

func TestDetailsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL)).Details(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}
