// Package urlutil normalizes URLs and decides which links are worth a visit.
package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// trackingParams are stripped during normalization so that tracking variants
// of a page collapse onto one frontier entry
var trackingParams = map[string]bool{
	"fbclid": true, "gclid": true, "dclid": true, "msclkid": true,
	"mc_cid": true, "mc_eid": true, "_ga": true, "_gl": true,
	"ref": true, "ref_src": true, "igshid": true, "yclid": true,
}

// Parse parses an absolute http(s) URL
func Parse(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}
	return u, true
}

// Resolve resolves href against base and normalizes the result.
// Non-http(s) schemes and unparsable hrefs report false.
func Resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return Normalize(u.String())
}

// Normalize lowercases scheme and host, drops fragments, default ports,
// tracking parameters and trailing slashes, and sorts the query.
func Normalize(raw string) (string, bool) {
	u, ok := Parse(raw)
	if !ok {
		return "", false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && u.Port() == "80") || (u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for key := range q {
		if trackingParams[strings.ToLower(key)] || strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	if u.Path == "" {
		u.Path = "/"
	} else {
		cleaned := path.Clean(u.Path)
		if cleaned != "/" && strings.HasSuffix(u.Path, "/") {
			cleaned = strings.TrimSuffix(cleaned, "/")
		}
		u.Path = cleaned
	}
	u.RawPath = ""
	return u.String(), true
}

// HasTrackingParams reports whether raw carries any tracking parameter
func HasTrackingParams(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	for key := range u.Query() {
		k := strings.ToLower(key)
		if trackingParams[k] || strings.HasPrefix(k, "utm_") {
			return true
		}
	}
	return false
}

// Host returns the hostname of raw without a leading "www."
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return bareHost(u.Hostname())
}

func bareHost(h string) string {
	return strings.TrimPrefix(strings.ToLower(h), "www.")
}

// SameSite reports whether a and b share a host, ignoring "www."
func SameSite(a, b string) bool {
	ha, hb := Host(a), Host(b)
	return ha != "" && ha == hb
}

// IsSubdomainOf reports whether host is site or one of its subdomains
func IsSubdomainOf(host, site string) bool {
	host, site = bareHost(host), bareHost(site)
	return host == site || strings.HasSuffix(host, "."+site)
}

// PathOf returns the normalized path of raw ("/" when empty)
func PathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// DestinationKey identifies where a link leads for deduplication.
// Same-site destinations key on their path; external ones on host, path
// and query so different third-party systems never collapse.
func DestinationKey(href, siteURL string) (key string, external bool) {
	norm, ok := Normalize(href)
	if !ok {
		return "", false
	}
	u, _ := url.Parse(norm)
	if SameSite(norm, siteURL) {
		return "site:" + u.Path, false
	}
	key = "ext:" + bareHost(u.Hostname()) + u.Path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key, true
}
