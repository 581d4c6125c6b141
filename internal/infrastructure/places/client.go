package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"muzmates/internal/domain/entity"
	"muzmates/pkg/logger"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"
	detailsFields  = "location,formattedAddress,displayName"
	detailsTTL     = 24 * time.Hour
	minQueryLength = 2
)

// City-level results only; listings are placed by city, not street address.
var cityTypes = []string{"locality", "sublocality", "neighborhood"}

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      Cache
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type textValue struct {
	Text string `json:"text"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction *struct {
			Place            string    `json:"place"`
			PlaceID          string    `json:"placeId"`
			Text             textValue `json:"text"`
			StructuredFormat struct {
				MainText      textValue `json:"mainText"`
				SecondaryText textValue `json:"secondaryText"`
			} `json:"structuredFormat"`
			Types []string `json:"types"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

type detailsResponse struct {
	ID               string    `json:"id"`
	FormattedAddress string    `json:"formattedAddress"`
	DisplayName      textValue `json:"displayName"`
	Location         *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Autocomplete returns city candidates for input. Inputs shorter than two characters
// return no candidates without calling the API.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]entity.PlaceSuggestion, error) {
	input = strings.TrimSpace(input)
	if len([]rune(input)) < minQueryLength {
		return []entity.PlaceSuggestion{}, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"input":                input,
		"includedPrimaryTypes": cityTypes,
		"languageCode":         "en",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:autocomplete", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp autocompleteResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	suggestions := make([]entity.PlaceSuggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		p := s.PlacePrediction
		if p == nil {
			continue
		}

		placeID := p.PlaceID
		if placeID == "" && p.Place != "" {
			placeID = p.Place[strings.LastIndex(p.Place, "/")+1:]
		}

		text := p.Text.Text
		if text == "" {
			text = joinNonEmpty(p.StructuredFormat.MainText.Text, p.StructuredFormat.SecondaryText.Text)
		}

		suggestions = append(suggestions, entity.PlaceSuggestion{
			PlaceID:       placeID,
			Text:          text,
			SecondaryText: p.StructuredFormat.SecondaryText.Text,
			Types:         p.Types,
		})
	}

	return suggestions, nil
}

func (c *Client) Details(ctx context.Context, placeID string) (*entity.PlaceDetails, error) {
	if placeID == "" {
		return nil, fmt.Errorf("place id is required")
	}

	if c.cache != nil {
		var cached entity.PlaceDetails
		hit, err := c.cache.Get(ctx, placeID, &cached)
		if err != nil {
			logger.Warn("Place cache read failed for %s: %v", placeID, err)
		} else if hit {
			return &cached, nil
		}
	}

	endpoint := fmt.Sprintf("%s/places/%s?fields=%s", c.baseURL, url.PathEscape(placeID), detailsFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp detailsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	details := &entity.PlaceDetails{
		PlaceID:          placeID,
		DisplayName:      resp.DisplayName.Text,
		FormattedAddress: resp.FormattedAddress,
	}
	if resp.Location != nil {
		lat, lon := resp.Location.Latitude, resp.Location.Longitude
		details.Lat = &lat
		details.Lon = &lon
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, placeID, details, detailsTTL); err != nil {
			logger.Warn("Place cache write failed for %s: %v", placeID, err)
		}
	}

	return details, nil
}

func (c *Client) do(req *http.Request, dest interface{}) error {
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("places request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read places response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("places API error (%d): %s", res.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("places API error (%d)", res.StatusCode)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode places response: %w", err)
	}
	return nil
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
