// Package criteria turns raw preference criteria into compiled,
// ready-to-match rule sets.
package criteria

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind classifies how a pattern string was interpreted.
type Kind int

const (
	// KindLiteral is a plain case-insensitive phrase search.
	KindLiteral Kind = iota
	// KindAlternation is an OR-list of escaped phrases split on '|'.
	KindAlternation
	// KindRawExpression is a user-supplied /expr/flags regular expression.
	KindRawExpression
)

// Origin tags whether a rule came from the criterion's primary pattern or
// one of its synonyms.
type Origin string

const (
	OriginPrimary Origin = "primary"
	OriginSynonym Origin = "synonym"
)

// Rule is a single compiled match rule.
type Rule struct {
	Kind   Kind
	Origin Origin
	// Source is the original pattern string the rule was compiled from,
	// reported back in match diagnostics.
	Source string

	re *regexp.Regexp
}

// Matches reports whether the rule's pattern occurs anywhere in text.
func (r *Rule) Matches(text string) bool {
	return r.re.MatchString(text)
}

// rawExpr matches '/inner/flags' where flags is composed only of
// recognized flag letters. The greedy inner group makes the final slash
// the delimiter, so embedded slashes stay part of the expression.
var rawExpr = regexp.MustCompile(`^/(.+)/([gimsuydv]*)$`)

// Compile turns one pattern string into a Rule. Interpretation order:
// a /expr/flags raw expression, then an OR-list on '|', then a literal
// phrase. Raw expressions fail when the inner text is not valid for the
// regexp package; escaped forms cannot fail.
func Compile(pattern string, origin Origin) (*Rule, error) {
	if m := rawExpr.FindStringSubmatch(pattern); m != nil {
		re, err := compileRaw(m[1], m[2])
		if err != nil {
			return nil, eris.Wrapf(err, "criteria: compile raw expression %q", pattern)
		}
		return &Rule{Kind: KindRawExpression, Origin: origin, Source: pattern, re: re}, nil
	}

	if strings.Contains(pattern, "|") {
		parts := strings.Split(pattern, "|")
		escaped := make([]string, len(parts))
		for i, p := range parts {
			escaped[i] = regexp.QuoteMeta(strings.TrimSpace(p))
		}
		// QuoteMeta output always compiles.
		re := regexp.MustCompile(`(?i)(` + strings.Join(escaped, "|") + `)`)
		return &Rule{Kind: KindAlternation, Origin: origin, Source: pattern, re: re}, nil
	}

	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(pattern))
	return &Rule{Kind: KindLiteral, Origin: origin, Source: pattern, re: re}, nil
}

// compileRaw builds a regexp from user-supplied expression text and its
// flag letters. i, m and s map to the regexp package's inline flags; the
// remaining recognized letters (g, u, y, d, v) describe matching modes
// that have no equivalent here and are accepted as no-ops.
func compileRaw(inner, flags string) (*regexp.Regexp, error) {
	var inline string
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			inline += string(f)
		}
	}
	if inline != "" {
		inner = "(?" + inline + ")" + inner
	}
	return regexp.Compile(inner)
}
