package validate

import (
	"net"
	"net/url"
	"sort"
	"strings"
)

// Trust weights for source hosts
const (
	TrustGovernment    = 1.0
	TrustInternational = 0.95
	TrustEducation     = 0.9
	TrustEncyclopedia  = 0.6
	TrustUnknown       = 0.4
	TrustMissingHost   = 0.2
)

// internationalDomains are standards and health bodies trusted almost as
// much as government sources
var internationalDomains = []string{
	"who.int",
	"nih.gov",
	"cdc.gov",
	"europa.eu",
	"un.org",
	"iso.org",
	"w3.org",
}

// TrustClassifier maps a source host to a trust weight in [0,1]
type TrustClassifier struct {
	overrides []domainWeight
}

type domainWeight struct {
	domain string
	weight float64
}

// NewTrustClassifier creates a classifier. Overrides are domain suffixes with
// weights that take precedence over the built-in rules; the longest matching
// suffix wins.
func NewTrustClassifier(overrides map[string]float64) *TrustClassifier {
	classifier := &TrustClassifier{}

	for domain, weight := range overrides {
		domain = normalizeHost(domain)
		if domain == "" {
			continue
		}
		classifier.overrides = append(classifier.overrides, domainWeight{
			domain: domain,
			weight: clamp01(weight),
		})
	}

	sort.Slice(classifier.overrides, func(i, j int) bool {
		if len(classifier.overrides[i].domain) != len(classifier.overrides[j].domain) {
			return len(classifier.overrides[i].domain) > len(classifier.overrides[j].domain)
		}
		return classifier.overrides[i].domain < classifier.overrides[j].domain
	})

	return classifier
}

// WeightURL classifies the host of rawURL; unparsable or host-less URLs get
// TrustMissingHost.
func (c *TrustClassifier) WeightURL(rawURL string) float64 {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return TrustMissingHost
	}
	return c.Weight(parsed.Host)
}

// Weight classifies a host (a port, if present, is ignored)
func (c *TrustClassifier) Weight(host string) float64 {
	host = normalizeHost(host)
	if host == "" {
		return TrustMissingHost
	}

	for _, o := range c.overrides {
		if matchesDomain(host, o.domain) {
			return o.weight
		}
	}

	switch {
	case matchesDomain(host, "gov"):
		return TrustGovernment
	case matchesAny(host, internationalDomains):
		return TrustInternational
	case matchesDomain(host, "edu"):
		return TrustEducation
	case matchesDomain(host, "wikipedia.org"):
		return TrustEncyclopedia
	default:
		return TrustUnknown
	}
}

// matchesDomain reports host == domain or host is a subdomain of it
func matchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if matchesDomain(host, d) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
