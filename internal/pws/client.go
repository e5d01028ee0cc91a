// Package pws is the client for the remote evidence-search, task-run and
// findall service.
package pws

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/ckwokli/pws/internal/errs"
	"github.com/ckwokli/pws/internal/httpclient"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/retry"
)

// DefaultBaseURL is used when the configured base URL is unusable
const DefaultBaseURL = "https://api.parallel.ai"

// Client talks to the remote service. It holds no per-request state and is
// safe for concurrent use.
type Client struct {
	http    *httpclient.Client
	baseURL string
	apiKey  string
	cfg     *model.Config
}

// New creates a Client. hc may be nil, in which case one is built from cfg.HTTP.
func New(cfg *model.Config, hc *httpclient.Client) *Client {
	if hc == nil {
		hc = httpclient.New(cfg.HTTP)
	}
	return &Client{
		http:    hc,
		baseURL: ResolveBaseURL(cfg.PWS),
		apiKey:  strings.TrimSpace(cfg.PWS.APIKey),
		cfg:     cfg,
	}
}

// BaseURL returns the resolved service root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveBaseURL validates the configured root against the allowed hosts.
// With a non-empty allow list the URL must be https on an allowed host;
// anything else falls back to DefaultBaseURL. Version suffixes are stripped
// because each endpoint carries its own.
func ResolveBaseURL(cfg model.PWSConfig) string {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	raw = strings.TrimSuffix(raw, "/v1beta")
	raw = strings.TrimSuffix(raw, "/v1")
	if raw == "" {
		return DefaultBaseURL
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		log.Printf("pws: invalid base url, using default: base=%q", raw)
		return DefaultBaseURL
	}

	if len(cfg.AllowedHosts) == 0 {
		return raw
	}

	if parsed.Scheme != "https" || !hostAllowed(parsed.Hostname(), cfg.AllowedHosts) {
		log.Printf("pws: base url not allowed, using default: host=%s", parsed.Host)
		return DefaultBaseURL
	}
	return raw
}

func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

// jobLimits bounds submit and poll calls
func (c *Client) jobLimits() httpclient.Limits {
	return httpclient.Limits{Timeout: c.cfg.HTTP.Timeout, MaxBytes: c.cfg.HTTP.MaxBodyBytes}
}

// jobPolicy is the retry policy for submit and poll calls
func (c *Client) jobPolicy() retry.Policy {
	return retry.Policy{MaxRetries: c.cfg.Retry.MaxRetries, BaseBackoff: c.cfg.Retry.BaseBackoff}
}

// doJSON sends one request and decodes a 2xx body into out. Non-2xx
// responses become upstream errors carrying the status.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, limits httpclient.Limits) error {
	if c.apiKey == "" {
		return errs.ErrMissingAPIKey
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errs.Wrap(errs.KindInternal, err, "encode %s", path)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "build %s", path)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Send(ctx, req, limits)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return errs.Upstream(resp.StatusCode, resp.Body)
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		// a malformed answer is final; the status keeps it from being retried
		decodeErr := errs.Wrap(errs.KindUpstream, err, "malformed %s response", path)
		decodeErr.Status = resp.StatusCode
		return decodeErr
	}
	return nil
}

// truncateRunes cuts s to at most n runes
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func pathID(id string) string {
	return url.PathEscape(id)
}
