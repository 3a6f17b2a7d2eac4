// Package vowlinesdk is the Go client for the Vowline HTTP API, plus the
// draft session that client applications edit timelines through.
package vowlinesdk

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

	"vowline/internal/domain"
	"vowline/internal/patch"
)

// Client is a minimal Vowline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	ActorID     string // legacy X-Actor-Id fallback
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
}

// ConflictError is the decoded 409 from a publish: the base version went
// stale and Snapshot carries the server's current timeline.
type ConflictError struct {
	CurrentVersion int64
	Snapshot       domain.TimelineSnapshot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("timeline version conflict: current version is %d", e.CurrentVersion)
}

// GetTimeline fetches the canonical snapshot.
func (c *Client) GetTimeline(ctx context.Context, weddingID string) (domain.TimelineSnapshot, error) {
	var resp domain.TimelineSnapshot
	endpoint := weddingPath(weddingID, "timeline")
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// PublishTimeline submits an op batch against baseVersion. A stale base
// returns *ConflictError; on success the fresh snapshot comes back.
func (c *Client) PublishTimeline(ctx context.Context, weddingID string, baseVersion int64, ops []patch.Op) (domain.TimelineSnapshot, error) {
	if ops == nil {
		ops = []patch.Op{}
	}
	body := map[string]any{
		"base_version": baseVersion,
		"ops":          ops,
	}
	var resp domain.TimelineSnapshot
	endpoint := weddingPath(weddingID, "timeline/publish")
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// SetBands replaces the background bands wholesale.
func (c *Client) SetBands(ctx context.Context, weddingID string, bands []domain.BackgroundBand) (domain.TimelineSnapshot, error) {
	body := map[string]any{"bands": bands}
	var resp domain.TimelineSnapshot
	endpoint := weddingPath(weddingID, "timeline/bands")
	err := c.do(ctx, http.MethodPut, endpoint, body, &resp)
	return resp, err
}

// ExportICS fetches the timeline as an iCalendar document.
func (c *Client) ExportICS(ctx context.Context, weddingID string) ([]byte, error) {
	endpoint := weddingPath(weddingID, "timeline.ics")
	var raw []byte
	err := c.doRaw(ctx, http.MethodGet, endpoint, &raw)
	return raw, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	res, data, err := c.roundTrip(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if res.StatusCode >= 300 {
		return decodeAPIError(res.StatusCode, data)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, endpoint string, out *[]byte) error {
	res, data, err := c.roundTrip(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	if res.StatusCode >= 300 {
		return decodeAPIError(res.StatusCode, data)
	}
	*out = data
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body any) (*http.Response, []byte, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	reqURL := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	case c.ActorID != "":
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, err
	}
	return res, data, nil
}

func decodeAPIError(status int, data []byte) error {
	var envelope struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Code != "" {
		if status == http.StatusConflict && envelope.Error.Code == "timeline_conflict" {
			var details struct {
				CurrentVersion int64                   `json:"current_version"`
				Snapshot       domain.TimelineSnapshot `json:"snapshot"`
			}
			if err := json.Unmarshal(envelope.Error.Details, &details); err == nil {
				return &ConflictError{
					CurrentVersion: details.CurrentVersion,
					Snapshot:       details.Snapshot,
				}
			}
		}
		return &APIError{
			StatusCode: status,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Message,
			Body:       string(data),
		}
	}
	return &APIError{StatusCode: status, Body: string(data)}
}

func weddingPath(weddingID, p string) string {
	return fmt.Sprintf("v0/weddings/%s/%s", url.PathEscape(weddingID), strings.TrimLeft(p, "/"))
}
