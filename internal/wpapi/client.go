package wpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bassista/go_fest/internal/announcements"
	"github.com/bassista/go_fest/internal/changes"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/schedule"
	"github.com/bassista/go_fest/internal/venues"
)

const maxBodyBytes = 8 << 20

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Paths are the REST routes below the base URL.
type Paths struct {
	Schedule      string
	Changes       string
	Announcements string
	Venues        string
}

// APIError is a non-2xx answer from the content API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	text := e.Body
	if text == "" {
		text = http.StatusText(e.Status)
	}
	return fmt.Sprintf("API %d: %s", e.Status, text)
}

// Client reads festival content from the WordPress REST API.
type Client struct {
	baseURL string
	paths   Paths
	doer    HTTPDoer
}

func NewClient(baseURL string, paths Paths, doer HTTPDoer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), paths: paths, doer: doer}
}

// GetChanges asks for the monotonic content version.
func (c *Client) GetChanges(ctx context.Context) (changes.Info, error) {
	body, err := c.get(ctx, c.paths.Changes)
	if err != nil {
		return changes.Info{}, err
	}

	var payload struct {
		Version     *json.Number `json:"version"`
		LastUpdated string       `json:"lastUpdated"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return changes.Info{}, fmt.Errorf("decode changes: %w", err)
	}
	if payload.Version == nil {
		return changes.Info{}, errors.New("decode changes: version is missing")
	}
	version, err := payload.Version.Int64()
	if err != nil {
		f, ferr := payload.Version.Float64()
		if ferr != nil {
			return changes.Info{}, fmt.Errorf("decode changes: version: %w", err)
		}
		version = int64(f)
	}
	return changes.Info{Version: version, LastUpdated: payload.LastUpdated}, nil
}

// FetchSchedule returns the validated event list.
func (c *Client) FetchSchedule(ctx context.Context) ([]schedule.Event, error) {
	body, err := c.get(ctx, c.paths.Schedule)
	if err != nil {
		return nil, err
	}
	events, err := schedule.DecodeEvents(body)
	if err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	logger.WithComponent("wpapi").Debugf("fetched %d schedule events", len(events))
	return events, nil
}

func (c *Client) FetchAnnouncements(ctx context.Context) ([]announcements.Announcement, error) {
	body, err := c.get(ctx, c.paths.Announcements)
	if err != nil {
		return nil, err
	}
	return announcements.Decode(body)
}

func (c *Client) FetchVenues(ctx context.Context) ([]venues.Venue, error) {
	body, err := c.get(ctx, c.paths.Venues)
	if err != nil {
		return nil, err
	}
	return venues.Decode(body)
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
