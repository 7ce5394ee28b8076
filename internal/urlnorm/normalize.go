// Package urlnorm canonicalizes article URLs: it strips tracking
// parameters, collapses mobile/amp variants, and resolves news-aggregator
// pages to their origin article.
package urlnorm

import (
	"net/url"
	"regexp"
	"strings"
)

// trackingKeys is the exact set of query parameter names stripped from
// every URL, plus any key with a "utm_" prefix.
var trackingKeys = map[string]bool{
	"gclid":      true,
	"fbclid":     true,
	"ncid":       true,
	"ref":        true,
	"ref_src":    true,
	"referrer":   true,
	"spm":        true,
	"utm_source": true,
	"utm_medium": true,
	"utm_campaign": true,
	"utm_term":   true,
	"utm_content": true,
}

var ampPathRe = regexp.MustCompile(`(?i)/amp(?:/|$)`)

// aggregatorHostSuffixes identifies the news-aggregator host family whose
// `m.` subdomain must be preserved (it affects content routing) and whose
// pages are resolved to an origin article link.
var aggregatorHostSuffixes = []string{"naver.com"}

// StripTrackingParams removes query parameters whose key is a known
// tracking key, preserving the order of the remaining parameters. It never
// errors: on a malformed URL it returns u unchanged.
func StripTrackingParams(u string) string {
	pu, err := url.Parse(u)
	if err != nil {
		return u
	}
	// url.Values loses ordering; rebuild from the raw query string instead
	// so remaining parameter order is preserved.
	var kept []string
	for _, pair := range strings.Split(pu.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		k, decodeErr := url.QueryUnescape(key)
		if decodeErr != nil {
			k = key
		}
		if trackingKeys[k] || strings.HasPrefix(k, "utm_") {
			continue
		}
		kept = append(kept, pair)
	}
	pu.RawQuery = strings.Join(kept, "&")
	return pu.String()
}

// isAggregatorHost reports whether host belongs to the configured
// news-aggregator family.
func isAggregatorHost(host string) bool {
	for _, suffix := range aggregatorHostSuffixes {
		if strings.Contains(host, suffix) {
			return true
		}
	}
	return false
}

// CollapseVariants collapses the `m.` mobile subdomain to its apex, except
// for aggregator hosts, and removes an `/amp` path segment. It never
// errors: on a malformed URL it returns u unchanged.
func CollapseVariants(u string) string {
	pu, err := url.Parse(u)
	if err != nil {
		return u
	}
	host := pu.Host
	if strings.HasPrefix(host, "m.") && !isAggregatorHost(host) {
		host = host[len("m."):]
	}
	pu.Host = host
	pu.Path = ampPathRe.ReplaceAllString(pu.Path, "/")
	return pu.String()
}

// AggregatorResolver resolves an aggregator page URL to its origin article
// link. Implementations must never error outward: callers treat any
// failure as "no origin found" and fall back to the collapsed URL.
type AggregatorResolver interface {
	ResolveOrigin(u string) (string, bool)
}

// Normalizer composes StripTrackingParams, CollapseVariants, and an
// optional AggregatorResolver into the full canonicalization rule from
// spec §4.1. It never raises; on any internal failure it returns the best
// effort canonical form built so far.
type Normalizer struct {
	Resolver AggregatorResolver
}

// New returns a Normalizer. resolver may be nil, in which case aggregator
// pages are only stripped/collapsed, never followed to their origin.
func New(resolver AggregatorResolver) *Normalizer {
	return &Normalizer{Resolver: resolver}
}

// Normalize canonicalizes u: strip tracking params, collapse variants,
// then, if u is on an aggregator host, resolve to the origin article and
// recursively normalize that URL. Idempotent: Normalize(Normalize(u)) ==
// Normalize(u).
func (n *Normalizer) Normalize(u string) string {
	collapsed := CollapseVariants(StripTrackingParams(u))

	pu, err := url.Parse(collapsed)
	if err != nil {
		return collapsed
	}
	if n.Resolver == nil || !isAggregatorOriginCandidate(pu.Host) {
		return collapsed
	}

	origin, ok := n.Resolver.ResolveOrigin(collapsed)
	if !ok || origin == "" || origin == collapsed {
		return collapsed
	}
	return n.Normalize(origin)
}

// isAggregatorOriginCandidate reports whether host is one whose articles
// carry an origin-article link worth resolving (currently Naver's news
// subdomains only).
func isAggregatorOriginCandidate(host string) bool {
	return strings.HasSuffix(host, "news.naver.com") || strings.HasSuffix(host, "n.news.naver.com")
}
