package evidence

import (
	"regexp"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Set is the tiered evidence extracted from one channel's text. Tokens are
// in order of first appearance in the text. A text may contribute to several
// tiers at once.
type Set struct {
	Explicit   []string
	Cultural   []string
	Contextual []string
	Excluded   []string
}

func (s Set) Empty() bool {
	return len(s.Explicit) == 0 && len(s.Cultural) == 0 && len(s.Contextual) == 0
}

// Matcher finds catalog tokens inside normalized text. One matcher per tier
// so catalogs can grow different matching strategies independently.
type Matcher interface {
	Match(norm string) []Hit
}

// Hit is a matched token with its first position in the scanned text.
type Hit struct {
	Token string // canonical display form, e.g. "MZA" or "vos sabés"
	Pos   int
}

// TermMatcher matches a list of catalog terms on word boundaries.
type TermMatcher struct {
	terms []compiledTerm
}

type compiledTerm struct {
	display string
	re      *regexp.Regexp
}

func NewTermMatcher(terms ...[]string) *TermMatcher {
	m := &TermMatcher{}
	for _, list := range terms {
		for _, t := range list {
			norm := Normalize(t)
			if norm == "" {
				continue
			}
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(norm) + `\b`)
			m.terms = append(m.terms, compiledTerm{display: t, re: re})
		}
	}
	return m
}

func (m *TermMatcher) Match(norm string) []Hit {
	var hits []Hit
	for _, t := range m.terms {
		if loc := t.re.FindStringIndex(norm); loc != nil {
			hits = append(hits, Hit{Token: t.display, Pos: loc[0]})
		}
	}
	return hits
}

// PatternMatcher matches regular expressions; the matched text itself is the
// reported token (e.g. "20hs").
type PatternMatcher struct {
	patterns []*regexp.Regexp
}

func NewPatternMatcher(patterns []string) *PatternMatcher {
	m := &PatternMatcher{}
	for _, p := range patterns {
		m.patterns = append(m.patterns, regexp.MustCompile(p))
	}
	return m
}

func (m *PatternMatcher) Match(norm string) []Hit {
	var hits []Hit
	for _, re := range m.patterns {
		if loc := re.FindStringIndex(norm); loc != nil {
			hits = append(hits, Hit{Token: norm[loc[0]:loc[1]], Pos: loc[0]})
		}
	}
	return hits
}

type multiMatcher []Matcher

func (mm multiMatcher) Match(norm string) []Hit {
	var hits []Hit
	for _, m := range mm {
		hits = append(hits, m.Match(norm)...)
	}
	return hits
}

// Extractor turns raw channel text into a Set. Input is sanitized of any
// HTML before matching; matching is case- and diacritic-insensitive.
type Extractor struct {
	explicit   Matcher
	cultural   Matcher
	contextual Matcher
	excluded   Matcher
	sanitizer  *bluemonday.Policy
}

func NewExtractor(c Catalogs) *Extractor {
	return &Extractor{
		explicit:   NewTermMatcher(c.CountryMarkers, c.LocalCodes, c.Provinces),
		cultural:   NewTermMatcher(c.VoseoPhrases, c.Slang, c.Culture),
		contextual: multiMatcher{NewPatternMatcher(c.TimePatterns), NewTermMatcher(c.ContextTerms)},
		excluded:   NewTermMatcher(c.Exclusions),
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

func (e *Extractor) Extract(text string) Set {
	norm := Normalize(e.sanitizer.Sanitize(text))
	return Set{
		Explicit:   tokens(e.explicit.Match(norm)),
		Cultural:   tokens(e.cultural.Match(norm)),
		Contextual: tokens(e.contextual.Match(norm)),
		Excluded:   tokens(e.excluded.Match(norm)),
	}
}

// tokens orders hits by first appearance and drops duplicates.
func tokens(hits []Hit) []string {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Pos < hits[j].Pos })
	var out []string
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.Token]; ok {
			continue
		}
		seen[h.Token] = struct{}{}
		out = append(out, h.Token)
	}
	return out
}

var foldTable = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u', 'ü': 'u', 'ñ': 'n',
}

// Normalize lower-cases, folds Spanish diacritics and collapses whitespace
// so "Sabés" matches "sabes" and catalogs need only one spelling.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if f, ok := foldTable[r]; ok {
			return f
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
