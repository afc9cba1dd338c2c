// Package client calls the pi HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/louisbranch/sunpi/internal/core/pi"
	"github.com/louisbranch/sunpi/internal/platform/timeouts"
	httpapi "github.com/louisbranch/sunpi/internal/services/pi/api/http"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// maxBodyBytes bounds response bodies; the largest π expansion the service
// can be configured for is about a megabyte.
const maxBodyBytes = 4 << 20

// ErrUnavailable reports that the service could not be reached or did not
// answer in time.
var ErrUnavailable = errors.New("pi service is unavailable")

// StatusError is a non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("pi service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pi service returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Circumference is a circumference as reported by the service.
type Circumference struct {
	Display  string
	Unit     string
	Radius   string
	PiDigits int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.http = httpClient }
}

// WithLocale sets the Accept-Language sent with every request.
func WithLocale(locale string) Option {
	return func(c *Client) { c.locale = strings.TrimSpace(locale) }
}

// Client calls the pi HTTP API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	locale  string
}

// New creates a client for the service at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", baseURL)
	}
	c := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: timeouts.HTTPClient},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		return nil, errors.New("http client is required")
	}
	return c, nil
}

// GetPi fetches π to digits fractional digits.
func (c *Client) GetPi(ctx context.Context, digits int) (pi.Value, error) {
	var body httpapi.PiResponse
	if err := c.get(ctx, "/api/pi", url.Values{"digits": {strconv.Itoa(digits)}}, &body); err != nil {
		return pi.Value{}, err
	}
	return parsePi(body)
}

// Latest fetches the most precise value the service has computed.
func (c *Client) Latest(ctx context.Context) (pi.Value, error) {
	var body httpapi.PiResponse
	if err := c.get(ctx, "/api/pi/latest", nil, &body); err != nil {
		return pi.Value{}, err
	}
	return parsePi(body)
}

// Circumference fetches the configured body's circumference in unit using π
// to digits fractional digits.
func (c *Client) Circumference(ctx context.Context, digits int, unit string) (Circumference, error) {
	query := url.Values{"digits": {strconv.Itoa(digits)}}
	if unit = strings.TrimSpace(unit); unit != "" {
		query.Set("unit", unit)
	}
	var body httpapi.CircumferenceResponse
	if err := c.get(ctx, "/api/circumference", query, &body); err != nil {
		return Circumference{}, err
	}
	return Circumference{
		Display:  body.Circumference,
		Unit:     body.Unit,
		Radius:   body.Radius,
		PiDigits: body.PiDigits,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL.JoinPath(path)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.locale != "" {
		req.Header.Set("Accept-Language", c.locale)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(statusCode int, data []byte) error {
	var body httpapi.ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Error.Code == "" {
		return &StatusError{StatusCode: statusCode, Message: http.StatusText(statusCode)}
	}
	return &StatusError{StatusCode: statusCode, Code: body.Error.Code, Message: body.Error.Message}
}

func parsePi(body httpapi.PiResponse) (pi.Value, error) {
	value, err := pi.Parse(body.Pi)
	if err != nil {
		return pi.Value{}, err
	}
	if dp, err := strconv.Atoi(body.DP); err != nil || dp != value.Digits() {
		return pi.Value{}, fmt.Errorf("%w: dp %q does not match %d digits", pi.ErrMalformedValue, body.DP, value.Digits())
	}
	return value, nil
}
