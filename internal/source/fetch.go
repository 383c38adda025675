package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrNoURL is returned when fetching without a configured sheet URL.
var ErrNoURL = errors.New("source url not configured")

// StatusError is returned when the sheet host answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source fetch failed: %s returned HTTP %d", e.URL, e.StatusCode)
}

// Fetcher downloads the published catalog export.
type Fetcher struct {
	URL      string
	MaxBytes int64
	Client   *http.Client
}

// NewFetcher returns a Fetcher with its own client using timeout.
func NewFetcher(url string, timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		URL:      url,
		MaxBytes: maxBytes,
		Client:   &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the export and returns its rows.
func (f *Fetcher) Fetch(ctx context.Context) ([][]string, error) {
	if f.URL == "" {
		return nil, ErrNoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("source fetch failed: build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet;q=0.9, */*;q=0.1")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: f.URL, StatusCode: resp.StatusCode}
	}

	rows, err := ReadRows(nameForContentType(resp.Header.Get("Content-Type")), resp.Body, f.MaxBytes)
	if err != nil {
		return nil, err
	}

	slog.Debug("source fetched",
		"rows", len(rows),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rows, nil
}

// nameForContentType maps a response content type to a file name that
// DetectFormat understands.
func nameForContentType(ct string) string {
	if strings.Contains(strings.ToLower(ct), "spreadsheetml") {
		return "export.xlsx"
	}
	return "export.csv"
}
