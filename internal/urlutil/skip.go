package urlutil

import (
	"net/url"
	"strings"
)

// Skip reasons reported by Policy.Check
const (
	SkipInvalid      = "invalid"
	SkipExternal     = "external_domain"
	SkipFragmentOnly = "fragment_only"
	SkipAsset        = "static_asset"
	SkipAuth         = "auth_page"
	SkipTracking     = "tracking_variant"
	SkipEditorial    = "editorial_content"
	SkipScheme       = "non_http_scheme"
)

// pathRule rejects a link whose lowercased path contains any of the fragments
type pathRule struct {
	reason    string
	fragments []string
}

var assetExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico", ".bmp",
	".zip", ".rar", ".gz", ".tar", ".tgz", ".7z", ".exe", ".dmg", ".iso",
	".mp3", ".mp4", ".avi", ".mov", ".wav", ".webm", ".css", ".js", ".json",
	".xml", ".rss", ".txt", ".csv", ".doc", ".docx", ".xls", ".xlsx", ".ppt",
	".woff", ".woff2", ".ttf", ".eot",
}

var pathRules = []pathRule{
	{SkipAuth, []string{"/login", "/log-in", "/signin", "/sign-in", "/signup", "/sign-up", "/register", "/logout", "/account", "/my-account", "/password", "/wp-admin", "/wp-login"}},
	{SkipEditorial, []string{"/blog", "/news", "/article", "/press", "/tag/", "/author/", "/category/", "/privacy", "/terms", "/legal", "/cookie", "/careers", "/jobs", "/sitemap", "/feed", "/disclaimer", "/accessibility"}},
}

var skipSchemes = []string{"mailto:", "tel:", "javascript:", "sms:", "whatsapp:", "data:", "ftp:"}

// Policy decides whether a discovered link enters the crawl frontier
type Policy struct {
	SiteURL string
}

// Check resolves href against base and reports the normalized URL, or the
// reason it was rejected.
func (p Policy) Check(base *url.URL, href string) (normalized string, reason string, ok bool) {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if href == "" {
		return "", SkipInvalid, false
	}
	if strings.HasPrefix(href, "#") {
		return "", SkipFragmentOnly, false
	}
	for _, s := range skipSchemes {
		if strings.HasPrefix(lower, s) {
			return "", SkipScheme, false
		}
	}

	resolved := href
	if base != nil {
		ref, err := url.Parse(href)
		if err != nil {
			return "", SkipInvalid, false
		}
		resolved = base.ResolveReference(ref).String()
	}
	if HasTrackingParams(resolved) {
		return "", SkipTracking, false
	}
	norm, ok := Normalize(resolved)
	if !ok {
		return "", SkipInvalid, false
	}
	if !SameSite(norm, p.SiteURL) {
		return "", SkipExternal, false
	}
	if base != nil && norm == stripFragment(base) {
		return "", SkipFragmentOnly, false
	}

	lowerPath := strings.ToLower(PathOf(norm))
	for _, ext := range assetExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return "", SkipAsset, false
		}
	}
	for _, rule := range pathRules {
		for _, frag := range rule.fragments {
			if pathHasSegment(lowerPath, frag) {
				return "", rule.reason, false
			}
		}
	}
	return norm, "", true
}

// pathHasSegment matches frag at a segment boundary so "/newsletter-offers"
// is not treated as "/news"
func pathHasSegment(p, frag string) bool {
	idx := strings.Index(p, frag)
	for idx >= 0 {
		end := idx + len(frag)
		if strings.HasSuffix(frag, "/") || end == len(p) || p[end] == '/' || p[end] == '-' || p[end] == '.' {
			return true
		}
		next := strings.Index(p[end:], frag)
		if next < 0 {
			break
		}
		idx = end + next
	}
	return false
}

func stripFragment(u *url.URL) string {
	norm, _ := Normalize(u.String())
	return norm
}

// socialHosts never lead to a booking flow of the audited site
var socialHosts = []string{
	"facebook.com", "fb.com", "twitter.com", "x.com", "instagram.com",
	"linkedin.com", "pinterest.com", "youtube.com", "youtu.be", "tiktok.com",
	"wa.me", "whatsapp.com", "reddit.com", "tumblr.com", "t.me", "snapchat.com",
	"tripadvisor.com", "google.com", "maps.google.com", "goo.gl", "apple.com",
}

// IsSocialOrShare reports share widgets, social profiles and contact schemes
func IsSocialOrShare(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	if lower == "" {
		return false
	}
	for _, s := range skipSchemes {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	if strings.Contains(lower, "/share") || strings.Contains(lower, "sharer") || strings.Contains(lower, "intent/tweet") {
		return true
	}
	host := Host(lower)
	for _, h := range socialHosts {
		if IsSubdomainOf(host, h) {
			return true
		}
	}
	return false
}

// IsAuthLink reports login/registration/account links
func IsAuthLink(href string) bool {
	p := strings.ToLower(PathOf(href))
	for _, frag := range pathRules[0].fragments {
		if pathHasSegment(p, frag) {
			return true
		}
	}
	return false
}
