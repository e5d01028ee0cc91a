package pipeline

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/ckwokli/pws/internal/extract/adapters"
	"github.com/ckwokli/pws/internal/httpclient"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/util"
	"github.com/ckwokli/pws/internal/validate"
)

// Scraper turns a linked page into plain text
type Scraper struct {
	client   *httpclient.Client
	robots   *util.RobotsChecker
	registry *adapters.Registry
	cfg      model.ScrapeConfig
	maxLink  int
}

// NewScraper creates a Scraper. robots may be nil to skip robots.txt.
func NewScraper(cfg model.ScrapeConfig, maxLinkLength int, client *httpclient.Client, robots *util.RobotsChecker) *Scraper {
	if !cfg.RespectRobots {
		robots = nil
	}
	return &Scraper{
		client:   client,
		robots:   robots,
		registry: adapters.NewRegistry(),
		cfg:      cfg,
		maxLink:  maxLinkLength,
	}
}

// Fetch returns the text of link, or "" when the link is unusable, blocked
// by robots.txt, unreachable, or not a readable page. It never fails.
func (s *Scraper) Fetch(ctx context.Context, link string) string {
	link, err := validate.Link(link, s.maxLink)
	if err != nil || link == "" {
		return ""
	}

	if s.robots != nil {
		if !s.robotsAllowed(ctx, link) {
			log.Printf("scrape: disallowed by robots.txt: url=%s", link)
			return ""
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Send(ctx, req, httpclient.Limits{Timeout: s.cfg.Timeout, MaxBytes: s.cfg.MaxBytes})
	if err != nil {
		log.Printf("scrape: fetch failed: url=%s err=%v", link, err)
		return ""
	}
	if !resp.OK() {
		log.Printf("scrape: unexpected status: url=%s status=%d", link, resp.StatusCode)
		return ""
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(strings.ToLower(contentType), "text/plain") {
		return strings.TrimSpace(strings.ToValidUTF8(string(resp.Body), ""))
	}

	doc, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return ""
	}

	adapter := s.registry.FindAdapter(link, contentType)
	return adapter.ExtractText(doc, link)
}

func (s *Scraper) robotsAllowed(ctx context.Context, link string) bool {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	return s.robots.IsAllowed(ctx, link)
}
