package target

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is the site under test.
type Target struct {
	URL    *url.URL
	Domain string
	raw    string
}

// Parse validates raw as an absolute http(s) URL and derives its domain.
func Parse(raw string) (*Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing target %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("target %q: scheme must be http or https", raw)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("target %q: missing host", raw)
	}
	return &Target{URL: u, Domain: host, raw: raw}, nil
}

// String returns the URL exactly as given, which is what lighthouse receives.
func (t *Target) String() string {
	return t.raw
}
