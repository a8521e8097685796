package azdevops

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const (
	// DefaultAPIVersion is sent as api-version when none is configured.
	DefaultAPIVersion = "7.0"

	// DefaultRetryMax is how many times an idempotent GET is retried.
	DefaultRetryMax = 3

	defaultTimeout = 30 * time.Second
)

// DefaultUserAgent returns the User-Agent sent when none is configured.
func DefaultUserAgent(version string) string {
	return fmt.Sprintf("azdo-prtree/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH)
}

// Client represents an Azure DevOps API client bound to one organization.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	orgURL     string
	apiVersion string
	userAgent  string
	pat        string
	httpClient *retryablehttp.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion overrides the api-version query parameter.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithLogger sets the logger used for request tracing and retry messages.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetryWait bounds the wait between GET retries.
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryWaitMin = min
		c.httpClient.RetryWaitMax = max
	}
}

// WithRetryMax overrides how many times a GET is retried.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = n
	}
}

// NewClient creates a new Azure DevOps API client.
// orgURL is the organization URL, e.g. https://dev.azure.com/myorg
func NewClient(orgURL, pat string, opts ...Option) (*Client, error) {
	if orgURL == "" {
		return nil, fmt.Errorf("organization URL cannot be empty")
	}

	u, err := url.Parse(orgURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("organization URL %q must be an absolute http(s) URL", orgURL)
	}

	if pat == "" {
		return nil, fmt.Errorf("PAT cannot be empty")
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: defaultTimeout}
	rc.RetryMax = DefaultRetryMax
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		orgURL:     strings.TrimRight(orgURL, "/"),
		apiVersion: DefaultAPIVersion,
		userAgent:  DefaultUserAgent("dev"),
		pat:        pat,
		httpClient: rc,
		logger:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	rc.Logger = leveledLogger{logger: c.logger}

	return c, nil
}

// OrganizationURL returns the organization URL without a trailing slash.
func (c *Client) OrganizationURL() string {
	return c.orgURL
}

// APIVersion returns the api-version sent with every request.
func (c *Client) APIVersion() string {
	return c.apiVersion
}

// retryPolicy retries transport failures and 5xx responses only.
// Unlike retryablehttp.DefaultRetryPolicy it does not retry 429.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	if resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented {
		return true, nil
	}

	return false, nil
}

// apiURL joins a pre-escaped path onto the organization URL and appends api-version.
func (c *Client) apiURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", c.apiVersion)

	return c.orgURL + "/" + strings.TrimLeft(path, "/") + "?" + query.Encode()
}

// repoPath returns "{project}/_apis/git/repositories/{repo}" with both segments escaped.
func repoPath(project, repo string) string {
	return url.PathEscape(project) + "/_apis/git/repositories/" + url.PathEscape(repo)
}

// get performs a GET request with retries on transport errors and 5xx.
// accept selects the response representation ("application/json" or "text/plain").
func (c *Client) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &RemoteError{Message: "failed to create request", Err: err}
	}

	c.setHeaders(req.Header, accept)

	c.logger.Debug().Str("method", http.MethodGet).Str("url", rawURL).Msg("azure devops request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	return c.readResponse(resp)
}

// getJSON performs a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, rawURL, what string, out any) error {
	body, err := c.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}

	return decode(body, what, out)
}

// doRequest performs a non-idempotent request (POST, PATCH, PUT). It is never retried.
func (c *Client) doRequest(ctx context.Context, method, rawURL string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &RemoteError{Message: "failed to create request", Err: err}
	}

	c.setHeaders(req.Header, "application/json")
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("method", method).Str("url", rawURL).Msg("azure devops request")

	resp, err := c.httpClient.HTTPClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	return c.readResponse(resp)
}

func (c *Client) readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Status: resp.Status, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug().Int("status", resp.StatusCode).Str("url", resp.Request.URL.Redacted()).Msg("azure devops request failed")
		return nil, formatHTTPError(resp.StatusCode, body)
	}

	return body, nil
}

// setHeaders sets User-Agent, Accept and the Basic auth header.
// Azure DevOps uses the format ":{PAT}" for basic auth
func (c *Client) setHeaders(h http.Header, accept string) {
	auth := ":" + c.pat
	h.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	h.Set("User-Agent", c.userAgent)
	if accept != "" {
		h.Set("Accept", accept)
	}
}

func transportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &RemoteError{Message: "failed to reach Azure DevOps", Err: err}
}

func decode(body []byte, what string, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse Azure DevOps API response for %s: %w. "+
			"This may indicate an API structure change. Please check for updates or report this issue", what, err)
	}
	return nil
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Trace().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
