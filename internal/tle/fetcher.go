package tle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultCelesTrakURL = "https://celestrak.org/NORAD/elements/gp.php"

	// maxBodyBytes caps upstream responses.
	maxBodyBytes = 50 << 20
)

// Source resolves a catalog number to an element set valid around day.
type Source interface {
	Elements(ctx context.Context, noradID int, day time.Time, format Format) (Elements, error)
}

// Fetcher retrieves element sets from CelesTrak's GP endpoint.
// CelesTrak serves only the current set, so day is used for logging only.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher for the given GP endpoint URL.
func NewFetcher(baseURL string, logger *slog.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = defaultCelesTrakURL
	}
	return &Fetcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SourceURL returns the configured endpoint.
func (f *Fetcher) SourceURL() string {
	return f.baseURL
}

// Elements fetches the latest TLE for noradID.
func (f *Fetcher) Elements(ctx context.Context, noradID int, day time.Time, format Format) (Elements, error) {
	if format != FormatTLE {
		return Elements{}, fmt.Errorf("%w: celestrak serves %s only, got %q", ErrMalformed, FormatTLE, format)
	}

	if !isFutureDay(day, time.Now()) {
		f.logger.Warn("celestrak has no history, using latest elements",
			"norad_id", noradID,
			"day", day.Format(time.DateOnly),
		)
	}

	q := url.Values{}
	q.Set("CATNR", strconv.Itoa(noradID))
	q.Set("FORMAT", "tle")

	body, err := f.fetch(ctx, f.baseURL+"?"+q.Encode())
	if err != nil {
		return Elements{}, err
	}
	el, err := ParseElements(body, FormatTLE)
	if err != nil {
		return Elements{}, fmt.Errorf("NORAD %d: %w", noradID, err)
	}
	return el, nil
}

func (f *Fetcher) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, f.baseURL)
	}

	return readLimited(resp.Body)
}

// readLimited reads at most maxBodyBytes and errors on anything larger.
func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response exceeds %d byte limit", maxBodyBytes)
	}
	return body, nil
}

// isFutureDay reports whether day's calendar date is after now's (UTC).
func isFutureDay(day, now time.Time) bool {
	return truncateDay(day).After(truncateDay(now))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
