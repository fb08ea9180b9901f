// Package domains canonicalizes URLs and hostnames into comparable domain
// keys. Every data source reports domains slightly differently (scheme,
// www prefix, trailing paths); this is the single place that reconciles them.
package domains

import (
	"net/url"
	"strings"
)

// Normalize reduces a URL or bare hostname to its domain key: lowercase
// hostname with no scheme, no "www." prefix and no path. It never fails;
// inputs that don't parse as URLs fall back to plain string stripping.
//
// Two inputs referring to the same host must normalize identically — all
// cross-provider joins depend on it.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)

	candidate := s
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	if u, err := url.Parse(candidate); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}

	// Fallback for strings the URL parser rejects.
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return s
}
