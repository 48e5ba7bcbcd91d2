// Package outboundclient is the generic outbound HTTP client collaborator
// (spec §1 "Out of scope"): the ceremony engine depends on it only through
// the gatekeeper.Poster interface, never directly.
package outboundclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Client is a minimal JSON-over-HTTP poster used for GNAP callbacks and
// other fire-and-forget notifications to client/wallet endpoints.
type Client struct {
	httpClient *http.Client
}

// New creates an outbound client with a bounded timeout — a dropped client
// task must be able to abort in-flight callbacks (spec §5 "Cancellation and
// timeouts").
func New() *Client {
	return &Client{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

// PostJSON posts body as JSON to url and returns the raw response for the
// caller to inspect (status code is significant to the GNAP callback
// protocol, not just success/failure).
func (c *Client) PostJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}
