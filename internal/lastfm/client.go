// Package lastfm talks to the Last.fm web API for recent tracks, per-user
// play counts and account lookups.
package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	logging "github.com/ipfs/go-log/v2"
)

// DefaultBaseURL is the Last.fm API root.
const DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

const (
	userAgent   = "aikta/1.0 (https://github.com/llehouerou/aikta)"
	maxBodySize = 1 << 20

	// codeInvalidParameters is what Last.fm answers for unknown users.
	codeInvalidParameters = 6
)

// ErrUnknownUser is returned when Last.fm has no account with the given name.
var ErrUnknownUser = errors.New("unknown last.fm user")

var log = logging.Logger("lastfm")

// APIError is a failure reported by Last.fm itself.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("last.fm error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("last.fm returned status %d", e.Status)
}

// Client queries the read-only Last.fm endpoints. It is safe for
// concurrent use; the underlying http.Client is shared.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// NewClient creates a Client using httpClient for every request.
func NewClient(httpClient *http.Client, apiKey string, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecentTracks returns the raw user.getrecenttracks body for the user's
// single most recent track.
func (c *Client) RecentTracks(ctx context.Context, username string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("method", "user.getrecenttracks")
	params.Set("limit", "1")
	params.Set("user", username)

	body, err := c.call(ctx, params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeInvalidParameters {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, username)
		}
		return nil, fmt.Errorf("get recent tracks: %w", err)
	}
	return body, nil
}

// RecentTrack fetches and normalizes the user's latest track. The boolean
// is false when Last.fm has nothing usable for the user.
func (c *Client) RecentTrack(ctx context.Context, username string) (Song, bool, error) {
	body, err := c.RecentTracks(ctx, username)
	if err != nil {
		return Song{}, false, err
	}
	song, ok := NormalizeRecentTracks(body)
	return song, ok, nil
}

// PlayCount returns how many times username played the track. Failures are
// not reported: the count is decoration, so anything unexpected yields 0.
func (c *Client) PlayCount(ctx context.Context, artist, track, username string) int {
	params := url.Values{}
	params.Set("method", "track.getInfo")
	params.Set("artist", artist)
	params.Set("track", track)
	params.Set("username", username)

	body, err := c.call(ctx, params)
	if err != nil {
		log.Debugw("play count lookup failed", "user", username, "artist", artist, "track", track, "err", err)
		return 0
	}
	n, ok := parsePlaycount(body)
	if !ok {
		log.Debugw("play count missing from response", "user", username, "artist", artist, "track", track)
		return 0
	}
	return n
}

func (c *Client) call(ctx context.Context, params url.Values) (json.RawMessage, error) {
	params.Set("format", "json")
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Keep the api key out of logs and chat replies.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = c.baseURL + "?method=" + params.Get("method")
		}
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if !json.Valid(body) {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{Status: resp.StatusCode}
		}
		return nil, errors.New("decode response: invalid json")
	}

	// Last.fm reports some failures with a 200 status and an error body.
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		return nil, &APIError{Status: resp.StatusCode, Code: apiErr.Error, Message: apiErr.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode}
	}

	return body, nil
}
