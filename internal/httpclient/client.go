// Package httpclient performs single outbound HTTP exchanges with a hard
// deadline and a hard cap on response size. It never retries.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ckwokli/pws/internal/errs"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/util"
)

// Limits bounds one exchange. Zero values disable the bound.
type Limits struct {
	Timeout  time.Duration
	MaxBytes int64
}

// Response is a fully read response. Any HTTP status is returned as-is.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client sends bounded requests
type Client struct {
	http      *http.Client
	userAgent string
}

// New creates a Client with a proxy-aware transport that stops after 3 redirects
func New(cfg model.HTTPConfig) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)

	return NewWithClient(&http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}, cfg.UserAgent)
}

// NewWithClient wraps an existing http.Client
func NewWithClient(hc *http.Client, userAgent string) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc, userAgent: userAgent}
}

// HTTPClient returns the underlying client, for collaborators that need a
// plain *http.Client (robots.txt lookups)
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Send performs req under limits. A declared Content-Length above
// limits.MaxBytes fails before any body byte is read; an undeclared body is
// read through a limit of MaxBytes+1 so at most that much is buffered.
func (c *Client) Send(ctx context.Context, req *http.Request, limits Limits) (*Response, error) {
	if limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.Timeout)
		defer cancel()
	}
	req = req.WithContext(ctx)

	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, err, req)
	}
	defer func() { _ = resp.Body.Close() }()

	if limits.MaxBytes > 0 && resp.ContentLength > limits.MaxBytes {
		return nil, errs.New(errs.KindPayloadTooLarge,
			"response from %s declares %d bytes, limit %d", req.URL.Host, resp.ContentLength, limits.MaxBytes)
	}

	var reader io.Reader = resp.Body
	if limits.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, limits.MaxBytes+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, classify(ctx, err, req)
	}

	if limits.MaxBytes > 0 && int64(len(body)) > limits.MaxBytes {
		return nil, errs.New(errs.KindPayloadTooLarge,
			"response from %s exceeds %d bytes", req.URL.Host, limits.MaxBytes)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func classify(ctx context.Context, err error, req *http.Request) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errs.Wrap(errs.KindTimeout, err, "%s %s timed out", req.Method, req.URL.Host)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Host, ctx.Err())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.Wrap(errs.KindTimeout, err, "%s %s timed out", req.Method, req.URL.Host)
	}

	return errs.Wrap(errs.KindUpstream, err, "%s %s failed", req.Method, req.URL.Host)
}
