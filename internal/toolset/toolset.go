// Package toolset wires an optional external tool endpoint into agents.
//
// The endpoint is advertised to agents through a system note appended to
// their instructions. It is only activated when both the URL and the
// access token are configured; a partial configuration yields no toolset
// at all.
package toolset

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Toolset describes a reachable tool endpoint.
type Toolset struct {
	url   string
	token string

	client *http.Client
}

// FromConfig builds a toolset from the configured endpoint. It returns
// nil unless both url and token are non-empty.
func FromConfig(url, token string) *Toolset {
	if url == "" || token == "" {
		return nil
	}
	return &Toolset{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// URL returns the endpoint address.
func (t *Toolset) URL() string {
	return t.url
}

// Note returns the instruction fragment advertising the endpoint to
// agents. Suitable for appending to a role's system prompt.
func (t *Toolset) Note() string {
	return fmt.Sprintf("You have access to an external toolset at %s. Use it to look up facts instead of guessing.", t.url)
}

// Ping checks that the endpoint answers an authenticated request. Used
// at startup to surface misconfiguration early; a failure is advisory.
func (t *Toolset) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return fmt.Errorf("building toolset request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("reaching toolset endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("toolset endpoint unhealthy: %s", resp.Status)
	}
	return nil
}
