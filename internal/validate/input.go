package validate

import (
	"net/url"
	"strings"

	"github.com/ckwokli/pws/internal/errs"
)

// Link checks a user-supplied page link: https, with a host, at most
// maxLength characters. A blank link is returned as "" without error.
func Link(raw string, maxLength int) (string, error) {
	link := strings.TrimSpace(raw)
	if link == "" {
		return "", nil
	}

	if maxLength > 0 && len(link) > maxLength {
		return "", errs.New(errs.KindInvalidInput, "invalid link URL: longer than %d characters", maxLength)
	}

	parsed, err := url.Parse(link)
	if err != nil || parsed.Scheme != "https" || parsed.Hostname() == "" {
		return "", errs.New(errs.KindInvalidInput, "invalid link URL")
	}
	return link, nil
}
