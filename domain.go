package postlabel

import (
	"net"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

const canonicalFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveWWW

// CanonicalDomain reduces a URL (or a bare domain) to the form used for every
// domain comparison: lowercase host, no leading "www.", no trailing "/" or ".".
// Subdomains are preserved. Returns "" when no host can be parsed.
func CanonicalDomain(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		// A bare IPv6 literal, as returned for "http://[::1]/", has no port.
		if ip := net.ParseIP(strings.Trim(s, "[]")); ip != nil && strings.Contains(s, ":") {
			return ip.String()
		}
		s = "http://" + s
	}
	if clean, err := purell.NormalizeURLString(s, canonicalFlags); err == nil {
		s = clean
	}
	return extractHost(s)
}

func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	for strings.HasPrefix(host, "www.") {
		host = host[len("www."):]
	}
	return strings.TrimRight(host, "/.")
}

// DomainMatches reports whether domain equals flagged or is one of its
// subdomains. Both arguments must already be canonical.
func DomainMatches(domain, flagged string) bool {
	if domain == "" || flagged == "" {
		return false
	}
	return domain == flagged || strings.HasSuffix(domain, "."+flagged)
}
