// internal/app/system/geocode/geocode.go
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// DefaultOpenCageURL is the OpenCage forward-geocoding endpoint.
const DefaultOpenCageURL = "https://api.opencagedata.com/geocode/v1/json"

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves a free-text address. A nil Point with a nil error means
// the address was not found.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Point, error)
}

// FormatAddress builds the "address, city, state zip" query string,
// skipping empty parts.
func FormatAddress(address, city, state, zip string) string {
	var parts []string
	for _, p := range []string{address, city} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	tail := strings.TrimSpace(strings.TrimSpace(state) + " " + strings.TrimSpace(zip))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// Nop never finds anything.
type Nop struct{}

func (Nop) Geocode(context.Context, string) (*Point, error) { return nil, nil }

// OpenCage queries the OpenCage Data API.
type OpenCage struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenCage builds an OpenCage client. An empty baseURL uses the public
// endpoint.
func NewOpenCage(apiKey, baseURL string, timeout time.Duration) *OpenCage {
	if baseURL == "" {
		baseURL = DefaultOpenCageURL
	}
	client := cleanhttp.DefaultPooledClient()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.Timeout = timeout
	return &OpenCage{apiKey: apiKey, baseURL: baseURL, client: client}
}

type openCageResponse struct {
	Results []struct {
		Geometry Point `json:"geometry"`
	} `json:"results"`
}

// Geocode returns the first result's coordinates.
func (o *OpenCage) Geocode(ctx context.Context, address string) (*Point, error) {
	if strings.TrimSpace(address) == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("q", address)
	q.Set("key", o.apiKey)
	q.Set("limit", "1")
	q.Set("no_annotations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: opencage status %d", resp.StatusCode)
	}
	var body openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geocode: decode: %w", err)
	}
	if len(body.Results) == 0 {
		return nil, nil
	}
	p := body.Results[0].Geometry
	return &p, nil
}
