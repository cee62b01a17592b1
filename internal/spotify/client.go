package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1"
	userAgent      = "cosmic-wrapped/1.0"
)

// Sentinel errors.
var (
	// ErrUnauthorized is returned when Spotify rejects the access token,
	// signaling that a refresh should be attempted.
	ErrUnauthorized = errors.New("spotify rejected access token")

	// ErrUpstream is returned when Spotify keeps failing with a server
	// error or the request cannot complete after a retry.
	ErrUpstream = errors.New("spotify unavailable")
)

// Client is a thin Spotify Web API client. Server errors are retried
// once with a backoff delay before surfacing as ErrUpstream.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retryDelay time.Duration
}

// NewClient creates a Client whose requests time out after the given
// duration.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		retryDelay: time.Second,
	}
}

// CurrentProfile fetches the current user's profile (GET /v1/me).
func (c *Client) CurrentProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, accessToken, "/me", nil, &profile); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return &profile, nil
}

// TopTracks fetches the user's top tracks for a time range.
func (c *Client) TopTracks(ctx context.Context, accessToken, timeRange string, limit int) ([]Track, error) {
	params := url.Values{
		"time_range": {timeRange},
		"limit":      {strconv.Itoa(limit)},
	}
	var resp topTracksResponse
	if err := c.get(ctx, accessToken, "/me/top/tracks", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching top tracks: %w", err)
	}
	return resp.Items, nil
}

// TopArtists fetches the user's top artists for a time range.
func (c *Client) TopArtists(ctx context.Context, accessToken, timeRange string, limit int) ([]Artist, error) {
	params := url.Values{
		"time_range": {timeRange},
		"limit":      {strconv.Itoa(limit)},
	}
	var resp topArtistsResponse
	if err := c.get(ctx, accessToken, "/me/top/artists", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching top artists: %w", err)
	}
	return resp.Items, nil
}

// get performs an authenticated GET request, retrying once on server
// errors and transport failures.
func (c *Client) get(ctx context.Context, accessToken, path string, params url.Values, result any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		err := c.doSingleRequest(ctx, accessToken, reqURL, result)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// doSingleRequest performs a single request and decodes the response.
func (c *Client) doSingleRequest(ctx context.Context, accessToken, reqURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// isRetryable reports whether the error is worth one more attempt.
func isRetryable(err error) bool {
	return errors.Is(err, ErrUpstream)
}
