package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultNEDEndpoint is the NED object search service.
const DefaultNEDEndpoint = "https://ned.ipac.caltech.edu/cgi-bin/objsearch"

// DefaultLookupTimeout bounds a single cone search.
const DefaultLookupTimeout = 60 * time.Second

// maxResponseBytes caps how much of a response body is decoded.
const maxResponseBytes = 32 << 20

// ServiceError is a non-success answer from the service.
type ServiceError struct {
	// StatusCode is the HTTP status, 0 when the error came in the payload.
	StatusCode int
	Message    string
}

// Error returns a message describing the service failure.
func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("service error: %s", e.Message)
	}
	if e.RateLimited() {
		return fmt.Sprintf("service rate limited the request (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("service returned HTTP %d: %s", e.StatusCode, e.Message)
}

// RateLimited reports whether the service throttled the request.
func (e *ServiceError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// NEDClient queries the NED object search service over HTTP and decodes its
// VOTable responses.
type NEDClient struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

// NEDOption configures a NEDClient.
type NEDOption func(*NEDClient)

// WithEndpoint overrides the service URL.
func WithEndpoint(endpoint string) NEDOption {
	return func(c *NEDClient) { c.endpoint = endpoint }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) NEDOption {
	return func(c *NEDClient) { c.httpClient = hc }
}

// WithTimeout sets the per-query deadline. Zero disables it.
func WithTimeout(d time.Duration) NEDOption {
	return func(c *NEDClient) { c.timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) NEDOption {
	return func(c *NEDClient) { c.userAgent = ua }
}

// NewNEDClient creates a client with the given options.
func NewNEDClient(opts ...NEDOption) *NEDClient {
	c := &NEDClient{
		endpoint:   DefaultNEDEndpoint,
		httpClient: &http.Client{},
		timeout:    DefaultLookupTimeout,
		userAgent:  "nedmatch",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Client = (*NEDClient)(nil)

// Query runs a near-position search around q.Position.
func (c *NEDClient) Query(ctx context.Context, q Query) ([]Candidate, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reqURL, err := c.requestURL(q)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/x-votable+xml, text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(body, 512))
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: string(snippet)}
	}
	return decodeVOTable(body)
}

func (c *NEDClient) requestURL(q Query) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", c.endpoint, err)
	}
	radius := q.Radius
	if radius <= 0 {
		radius = DefaultSearchRadius
	}
	equinox := q.Position.Equinox
	if equinox == "" {
		equinox = "J2000.0"
	}

	v := url.Values{}
	v.Set("search_type", "Near Position Search")
	v.Set("in_csys", coordinateSystem(q.Position.Frame))
	v.Set("in_equinox", equinox)
	v.Set("lon", strconv.FormatFloat(q.Position.RA, 'f', 6, 64)+"d")
	v.Set("lat", strconv.FormatFloat(q.Position.Dec, 'f', 6, 64)+"d")
	v.Set("radius", strconv.FormatFloat(radius.Arcmin(), 'f', -1, 64))
	v.Set("out_csys", "Equatorial")
	v.Set("out_equinox", "J2000.0")
	v.Set("obj_sort", "Distance to search center")
	v.Set("z_constraint", "Unconstrained")
	v.Set("z_unit", "z")
	v.Set("ot_include", "ANY")
	v.Set("nmp_op", "ANY")
	v.Set("of", "xml_main")
	u.RawQuery = v.Encode()
	return u.String(), nil
}

// coordinateSystem maps a frame name to the service's in_csys value.
func coordinateSystem(frame string) string {
	switch frame {
	case "galactic":
		return "Galactic"
	case "ecliptic":
		return "Ecliptic"
	default:
		return "Equatorial"
	}
}
