package zgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"zaakbrug_backend/platform/logger"

	"golang.org/x/time/rate"
)

// crs is the coordinate reference system the zaak schema requires on every
// request, geometry or not.
const crs = "EPSG:4326"

// Config carries the settings the client needs. platform/config.Config
// satisfies it.
type Config interface {
	GetZakenAPIBaseURL() string
	GetDocumentenAPIBaseURL() string
	GetZGWClientID() string
	GetZGWClientSecret() string
	GetZGWRequestsPerSecond() float64
}

// Client is the HTTP client for the Zaken and Documenten APIs.
type Client struct {
	httpClient    *http.Client
	signer        *Signer
	limiter       *rate.Limiter
	zakenBase     string
	documentenBase string
	log           *logger.Logger
}

// New creates a new ZGW API client.
func New(cfg Config, log *logger.Logger) *Client {
	rps := cfg.GetZGWRequestsPerSecond()
	if rps <= 0 {
		rps = 10
	}

	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		signer:        NewSigner(cfg.GetZGWClientID(), cfg.GetZGWClientSecret()),
		limiter:       rate.NewLimiter(rate.Limit(rps), int(rps)),
		zakenBase:     strings.TrimRight(cfg.GetZakenAPIBaseURL(), "/"),
		documentenBase: strings.TrimRight(cfg.GetDocumentenAPIBaseURL(), "/"),
		log:           log,
	}
}

// newRequest builds a request with a freshly signed bearer credential and
// the fixed CRS headers.
func (c *Client) newRequest(ctx context.Context, method, reqURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	bearer, err := c.signer.Sign()
	if err != nil {
		return nil, fmt.Errorf("sign bearer credential: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Crs", crs)
	req.Header.Set("Accept-Crs", crs)

	return req, nil
}

// do executes a request after waiting for the rate limiter.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("zgw request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		return nil, err
	}
	c.log.ZGWRequest(req.Method, req.URL.Path, resp.StatusCode, float64(time.Since(start).Microseconds())/1000.0)

	return resp, nil
}

// doJSON executes a JSON request and decodes a JSON response into out.
// A nil body sends no payload; a nil out discards the response body.
func (c *Client) doJSON(ctx context.Context, op, method, reqURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return WrapError(KindAPI, op, "encode request body", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, reqURL, reader)
	if err != nil {
		return WrapError(KindAPI, op, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req)
	if err != nil {
		return WrapError(KindAPI, op, "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &Error{
			Kind:    KindAPI,
			Op:      op,
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(detail)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return WrapError(KindAPI, op, "decode response", err)
	}
	return nil
}
