// Package afriwork talks to the Afriwork mini-app backend: the token exchange
// endpoint and the GraphQL API behind it.
package afriwork

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const (
	DefaultAPIURL  = "https://api.afriworket.com"
	DefaultAuthURL = "https://api.afriworket.com:9010"
	DefaultOrigin  = "https://miniapp.afriworket.com"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36"
	DefaultTimeout   = 20 * time.Second

	validatePath = "/mini-app/validate-request"
	graphqlPath  = "/v1/graphql"
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	APIURL    string
	AuthURL   string
	Origin    string
	UserAgent string
	// Timeout bounds every single request.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS verification. Only for self-signed test endpoints.
	InsecureSkipVerify bool
	Logger             *slog.Logger
	// Observe, when set, receives the duration of every GraphQL operation.
	Observe func(operation string, elapsed time.Duration)
}

// Client holds the connection pool and cookie jar of one run. Close it when
// the run is over.
type Client struct {
	apiURL     string
	authURL    string
	origin     string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	log        *slog.Logger
	observe    func(string, time.Duration)
}

func New(opts Options) *Client {
	c := &Client{
		apiURL:    strings.TrimRight(orDefault(opts.APIURL, DefaultAPIURL), "/"),
		authURL:   strings.TrimRight(orDefault(opts.AuthURL, DefaultAuthURL), "/"),
		origin:    strings.TrimRight(orDefault(opts.Origin, DefaultOrigin), "/"),
		userAgent: orDefault(opts.UserAgent, DefaultUserAgent),
		timeout:   opts.Timeout,
		log:       opts.Logger,
		observe:   opts.Observe,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		c.log.Warn("TLS verification disabled for afriwork endpoints")
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in for self-signed test endpoints
	}

	// cookiejar.New only fails on a bad PublicSuffixList, and we pass none.
	jar, _ := cookiejar.New(nil)
	c.httpClient = &http.Client{Transport: transport, Jar: jar}
	return c
}

// Close releases idle connections held by the run.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) commonHeaders(accept string) http.Header {
	h := http.Header{}
	h.Set("Accept", accept)
	h.Set("Accept-Language", "en-GB,en-US;q=0.9,en;q=0.8")
	h.Set("Content-Type", "application/json")
	h.Set("Origin", c.origin)
	h.Set("Referer", c.origin+"/")
	h.Set("User-Agent", c.userAgent)
	return h
}

// post sends body as JSON and returns the status code and the raw response body.
func (c *Client) post(ctx context.Context, url string, header http.Header, body any) (int, []byte, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header = header

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, bodyBytes, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
