// internal/common/http/client.go
package http

import (
	"net/http"
	"time"

	"product-discovery/internal/common/metrics"
)

const userAgent = "product-discovery/1.0"

// Client is the outbound client for remote providers. It satisfies the
// Do-only interface SDK clients accept, stamps a user agent and counts
// responses per host.
type Client struct {
	httpClient *http.Client
}

// NewClient applies timeout as a hard ceiling on every request, including
// reading the body.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequests.WithLabelValues(req.URL.Host, statusClass(resp, err)).Inc()
	return resp, err
}

// Timeout is the hard ceiling applied to every request.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

func statusClass(resp *http.Response, err error) string {
	switch {
	case err != nil:
		return "error"
	case resp.StatusCode >= 500:
		return "5xx"
	case resp.StatusCode >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
