// Package hostedapi implements the unified-mail-API provider. It talks
// to a hosted mail API (Nylas-shaped v3 endpoints) and maps its native
// objects into the shared model.
package hostedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Engineernoob/Term-Mail/internal/provider"
)

const defaultBaseURL = "https://api.us.nylas.com"

// Config carries the hosted-API account settings.
type Config struct {
	APIKey  string
	GrantID string
	BaseURL string
}

// apiClient is a thin HTTP wrapper that applies authentication and
// translates API failures into the shared error taxonomy before they
// reach the provider layer.
type apiClient struct {
	cfg        Config
	httpClient *http.Client
}

func newAPIClient(cfg Config) *apiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &apiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// grantURL builds an endpoint URL under the account's grant.
func (c *apiClient) grantURL(path string, query url.Values) string {
	u := fmt.Sprintf("%s/v3/grants/%s%s", c.cfg.BaseURL, url.PathEscape(c.cfg.GrantID), path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do issues a request and decodes the JSON response into out. Status
// codes map onto the taxonomy: 401/403 is an authentication failure,
// 404 a missing entity, 429 a rate limit (distinct from auth so the
// caller can back off instead of reconfiguring), anything else a
// connection-level failure.
func (c *apiClient) do(ctx context.Context, method, rawURL string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", provider.ErrConnection, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", provider.ErrConnection, err)
		}
	}
	return nil
}

// mapStatus translates an HTTP status into the error taxonomy.
func mapStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: api status %d", provider.ErrAuth, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: api status %d", provider.ErrNotFound, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: api status %d", provider.ErrRateLimited, status)
	default:
		return fmt.Errorf("%w: api status %d", provider.ErrConnection, status)
	}
}

// Native API object shapes.

type apiParticipant struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type apiAttachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type apiMessage struct {
	ID          string           `json:"id"`
	GrantID     string           `json:"grant_id"`
	Folders     []string         `json:"folders"`
	Subject     string           `json:"subject"`
	From        []apiParticipant `json:"from"`
	To          []apiParticipant `json:"to"`
	Cc          []apiParticipant `json:"cc"`
	Bcc         []apiParticipant `json:"bcc"`
	Date        int64            `json:"date"`
	Unread      bool             `json:"unread"`
	Starred     bool             `json:"starred"`
	Snippet     string           `json:"snippet"`
	Body        string           `json:"body"`
	Attachments []apiAttachment  `json:"attachments"`
}

type apiFolder struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UnreadCount int    `json:"unread_count"`
	TotalCount  int    `json:"total_count"`
}

type apiMessageList struct {
	Data []apiMessage `json:"data"`
}

type apiMessageOne struct {
	Data apiMessage `json:"data"`
}

type apiFolderList struct {
	Data []apiFolder `json:"data"`
}
