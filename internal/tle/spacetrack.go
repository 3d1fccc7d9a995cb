package tle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultSpaceTrackURL = "https://www.space-track.org"

// SpaceTrackClient queries the Space-Track GP API. It logs in lazily and
// keeps the session cookie for later queries.
type SpaceTrackClient struct {
	baseURL    string
	identity   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	loggedIn bool

	now func() time.Time
}

// NewSpaceTrackClient creates a client for the given account.
func NewSpaceTrackClient(baseURL, identity, password string, logger *slog.Logger) *SpaceTrackClient {
	if baseURL == "" {
		baseURL = defaultSpaceTrackURL
	}
	jar, _ := cookiejar.New(nil)
	return &SpaceTrackClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		identity: identity,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Elements fetches the element set for noradID. Days after today use the
// current GP catalog; other days query gp_history for epochs in
// [day, day+1].
func (c *SpaceTrackClient) Elements(ctx context.Context, noradID int, day time.Time, format Format) (Elements, error) {
	var wire string
	switch format {
	case FormatTLE:
		wire = "tle"
	case FormatOMM:
		wire = "json"
	default:
		return Elements{}, fmt.Errorf("%w: data format must be TLE or OMM, got %q", ErrMalformed, format)
	}

	if err := c.login(ctx); err != nil {
		return Elements{}, err
	}

	path := c.queryPath(noradID, day, wire)
	body, err := c.get(ctx, path)
	if err != nil {
		return Elements{}, err
	}
	if len(strings.TrimSpace(string(body))) == 0 || strings.TrimSpace(string(body)) == "[]" {
		return Elements{}, fmt.Errorf("failed to retrieve %s for satellite with ID %d", format, noradID)
	}

	c.logger.Debug("space-track elements received", "norad_id", noradID, "format", format, "bytes", len(body))

	el, err := ParseElements(body, format)
	if err != nil {
		return Elements{}, fmt.Errorf("NORAD %d: %w", noradID, err)
	}
	return el, nil
}

func (c *SpaceTrackClient) queryPath(noradID int, day time.Time, wire string) string {
	if isFutureDay(day, c.now()) {
		return fmt.Sprintf("/basicspacedata/query/class/gp/NORAD_CAT_ID/%d/orderby/EPOCH%%20desc/limit/1/format/%s",
			noradID, wire)
	}
	start := truncateDay(day)
	end := start.AddDate(0, 0, 1)
	return fmt.Sprintf("/basicspacedata/query/class/gp_history/NORAD_CAT_ID/%d/EPOCH/%s--%s/orderby/EPOCH%%20desc/limit/1/format/%s",
		noradID, start.Format(time.DateOnly), end.Format(time.DateOnly), wire)
}

func (c *SpaceTrackClient) login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn {
		return nil
	}

	form := url.Values{}
	form.Set("identity", c.identity)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ajaxauth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("space-track login: %w", err)
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("space-track login: unexpected status code %d", resp.StatusCode)
	}
	// A failed login still answers 200 with a JSON error body.
	if strings.Contains(string(body), "Failed") {
		return fmt.Errorf("space-track login rejected for %s", c.identity)
	}

	c.loggedIn = true
	c.logger.Info("space-track session established", "identity", c.identity)
	return nil
}

func (c *SpaceTrackClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying space-track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.loggedIn = false
		c.mu.Unlock()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from space-track", resp.StatusCode)
	}

	return readLimited(resp.Body)
}
