// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package patterns holds the compiled, versioned detection rule sets. A
// Library is built once at startup and shared read-only by every concurrent
// evaluation; nothing in it mutates after Compile.
package patterns

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/modsentry/modsentry/internal/cache"
	"github.com/modsentry/modsentry/internal/profile"
)

// ToxicityFamily is one rung of the toxicity ladder, least to most severe.
// A match in a higher family overrides any lower match for the same message.
type ToxicityFamily struct {
	Name     string
	Type     profile.ViolationType
	Severity profile.Severity // severity floor for this family
	keywords *cache.AhoCorasick
	regexes  []*regexp.Regexp
}

// ToxicityMatch describes the winning family match for a message.
type ToxicityMatch struct {
	Family   string
	Type     profile.ViolationType
	Severity profile.Severity
	Pattern  string
}

// DomainClass classifies a URL domain for the link-reputation detector.
type DomainClass int

const (
	DomainClean DomainClass = iota
	DomainShortener
	DomainImpersonation
	DomainBlacklisted
)

// String returns the class name used in evidence maps.
func (c DomainClass) String() string {
	switch c {
	case DomainShortener:
		return "shortener"
	case DomainImpersonation:
		return "impersonation"
	case DomainBlacklisted:
		return "blacklisted"
	default:
		return "clean"
	}
}

// weightedKeyword pairs a phishing keyword with its score contribution.
type weightedKeyword struct {
	weight int
}

// Library is the immutable compiled rule set.
type Library struct {
	// Version identifies the rule set in audit records and the admin API.
	Version string

	toxicity []ToxicityFamily // ordered least to most severe

	phishing *cache.AhoCorasick // data: weightedKeyword
	urgency  *cache.AhoCorasick
	distress *cache.AhoCorasick

	shorteners    map[string]struct{}
	impersonation map[string]struct{}
	blacklist     map[string]struct{}

	urlRegex *regexp.Regexp
}

// Spec describes the inputs to Compile. The default rule set lives in
// defaults.go; deployments extend it through configuration.
type Spec struct {
	Version        string
	ExtraBlocklist []string
}

// Compile builds a Library from the built-in rule sets plus spec extras.
// Invalid built-in regexes are a programmer error and panic at startup,
// never at evaluation time.
func Compile(spec Spec) (*Library, error) {
	if spec.Version == "" {
		spec.Version = defaultVersion
	}

	lib := &Library{
		Version:       spec.Version,
		phishing:      cache.NewAhoCorasick(),
		urgency:       cache.NewAhoCorasick(),
		distress:      cache.NewAhoCorasick(),
		shorteners:    make(map[string]struct{}, len(shortenerDomains)),
		impersonation: make(map[string]struct{}, len(impersonationDomains)),
		blacklist:     make(map[string]struct{}, len(blacklistedDomains)+len(spec.ExtraBlocklist)),
		urlRegex:      regexp.MustCompile(`(?i)https?://[^\s<>"]+|www\.[^\s<>"]+`),
	}

	for _, fam := range toxicityLadder {
		compiled := ToxicityFamily{
			Name:     fam.name,
			Type:     fam.vtype,
			Severity: fam.severity,
			keywords: cache.NewAhoCorasick(),
		}
		compiled.keywords.AddPatterns(fam.keywords, fam.name)
		compiled.keywords.Build()
		for _, expr := range fam.regexes {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("toxicity family %s: bad pattern %q: %w", fam.name, expr, err)
			}
			compiled.regexes = append(compiled.regexes, re)
		}
		lib.toxicity = append(lib.toxicity, compiled)
	}

	for kw, w := range phishingKeywords {
		lib.phishing.AddPattern(kw, weightedKeyword{weight: w})
	}
	lib.phishing.Build()

	lib.urgency.AddPatterns(urgencyKeywords, nil)
	lib.urgency.Build()

	lib.distress.AddPatterns(distressKeywords, nil)
	lib.distress.Build()

	for _, d := range shortenerDomains {
		lib.shorteners[d] = struct{}{}
	}
	for _, d := range impersonationDomains {
		lib.impersonation[d] = struct{}{}
	}
	for _, d := range blacklistedDomains {
		lib.blacklist[d] = struct{}{}
	}
	for _, d := range spec.ExtraBlocklist {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			lib.blacklist[d] = struct{}{}
		}
	}

	return lib, nil
}

// MustCompile is Compile for the built-in defaults; it panics on error,
// which only happens when a built-in pattern is broken.
func MustCompile() *Library {
	lib, err := Compile(Spec{})
	if err != nil {
		panic(err)
	}
	return lib
}

// MatchToxicity walks the ladder from most to least severe and returns the
// highest family that matches. A hate-speech match therefore always wins
// over an insult match in the same message.
func (l *Library) MatchToxicity(content string) (ToxicityMatch, bool) {
	for i := len(l.toxicity) - 1; i >= 0; i-- {
		fam := &l.toxicity[i]
		if m, ok := fam.keywords.SearchFirst(content); ok {
			return ToxicityMatch{Family: fam.Name, Type: fam.Type, Severity: fam.Severity, Pattern: m.Pattern}, true
		}
		for _, re := range fam.regexes {
			if loc := re.FindString(content); loc != "" {
				return ToxicityMatch{Family: fam.Name, Type: fam.Type, Severity: fam.Severity, Pattern: loc}, true
			}
		}
	}
	return ToxicityMatch{}, false
}

// PhishingScore computes the keyword+urgency score for a message and
// returns the matched terms as evidence.
func (l *Library) PhishingScore(content string) (int, []string) {
	score := 0
	var matched []string

	seen := map[string]struct{}{}
	for _, m := range l.phishing.Search(content) {
		if _, dup := seen[m.Pattern]; dup {
			continue
		}
		seen[m.Pattern] = struct{}{}
		score += m.Data.(weightedKeyword).weight
		matched = append(matched, m.Pattern)
	}
	for _, m := range l.urgency.Search(content) {
		if _, dup := seen[m.Pattern]; dup {
			continue
		}
		seen[m.Pattern] = struct{}{}
		score++
		matched = append(matched, m.Pattern)
	}
	return score, matched
}

// MatchDistress reports a crisis-keyword match. Distress is routed to
// supportive handling, never punishment.
func (l *Library) MatchDistress(content string) (string, bool) {
	m, ok := l.distress.SearchFirst(content)
	if !ok {
		return "", false
	}
	return m.Pattern, true
}

// ClassifyDomain buckets a domain for link reputation. Subdomains inherit
// the classification of their registrable parent where listed.
func (l *Library) ClassifyDomain(domain string) DomainClass {
	domain = strings.ToLower(strings.TrimPrefix(domain, "www."))

	if matchDomain(l.blacklist, domain) {
		return DomainBlacklisted
	}
	if matchDomain(l.impersonation, domain) {
		return DomainImpersonation
	}
	if matchDomain(l.shorteners, domain) {
		return DomainShortener
	}
	return DomainClean
}

// matchDomain checks the domain and each parent suffix against the set.
func matchDomain(set map[string]struct{}, domain string) bool {
	for {
		if _, ok := set[domain]; ok {
			return true
		}
		idx := strings.IndexByte(domain, '.')
		if idx < 0 {
			return false
		}
		domain = domain[idx+1:]
	}
}

// ExtractURLs returns URLs found in raw content, merged with any the
// platform already parsed out of the message.
func (l *Library) ExtractURLs(content string, known []string) []string {
	found := l.urlRegex.FindAllString(content, -1)
	if len(known) == 0 {
		return found
	}

	seen := make(map[string]struct{}, len(found)+len(known))
	merged := make([]string, 0, len(found)+len(known))
	for _, u := range append(known, found...) {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		merged = append(merged, u)
	}
	return merged
}

// Domain extracts the lowercased host from a raw URL, tolerating bare
// "www.example.com" forms.
func Domain(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	return host
}
