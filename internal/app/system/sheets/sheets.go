// internal/app/system/sheets/sheets.go
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/contributor/internal/app/system/csvutil"
	"github.com/hashicorp/go-cleanhttp"
)

// ErrFetch marks failures to download the sheet, as opposed to failures to
// parse what was downloaded.
var ErrFetch = errors.New("fetch sheet")

// Source fetches the published resource spreadsheet.
type Source interface {
	Fetch(ctx context.Context) ([]map[string]string, error)
}

// CSV reads a spreadsheet published as CSV over HTTP. Redirects are
// followed (published Google Sheets redirect to a content host).
type CSV struct {
	url    string
	client *http.Client
}

// NewCSV returns a Source for url with the given request timeout.
func NewCSV(url string, timeout time.Duration) *CSV {
	client := cleanhttp.DefaultPooledClient()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.Timeout = timeout
	return &CSV{url: url, client: client}
}

// URL returns the sheet location.
func (c *CSV) URL() string { return c.url }

// Fetch downloads and parses the sheet into header-keyed rows.
func (c *CSV) Fetch(ctx context.Context) ([]map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	rows, err := csvutil.ParseRows(resp.Body, csvutil.MaxRows)
	if err != nil {
		return nil, fmt.Errorf("parse sheet: %w", err)
	}
	return rows, nil
}
