// Package resolver maps free-text names onto accounts and categories.
//
// Matching is permissive: exact name, then substring in either direction,
// then a fallback. Only an empty candidate set fails. Names are compared
// case-insensitively with accents folded, so "alimentacao" matches
// "Alimentação".
package resolver

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dvloznov/financeiro/internal/domain"
)

// FallbackCategoryName is the category chosen when nothing else matches.
const FallbackCategoryName = "Outros"

// MatchKind records which step of the chain produced a match.
type MatchKind int

const (
	NoMatch MatchKind = iota
	MatchExact
	MatchPartial
	MatchFallback
	MatchFirst
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPartial:
		return "partial"
	case MatchFallback:
		return "fallback"
	case MatchFirst:
		return "first"
	default:
		return "none"
	}
}

// Fold lowercases s, trims it and strips combining marks.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// index returns the position of the best candidate for query among names.
// fallback, when non-empty, is tried by literal name before the first candidate.
func index(names []string, query, fallback string) (int, MatchKind) {
	if len(names) == 0 {
		return -1, NoMatch
	}
	q := Fold(query)
	folded := make([]string, len(names))
	for i, n := range names {
		folded[i] = Fold(n)
	}

	if q != "" {
		for i, n := range folded {
			if n == q {
				return i, MatchExact
			}
		}
		for i, n := range folded {
			if n != "" && (strings.Contains(n, q) || strings.Contains(q, n)) {
				return i, MatchPartial
			}
		}
	}
	if fallback != "" {
		for i, n := range names {
			if n == fallback {
				return i, MatchFallback
			}
		}
	}
	return 0, MatchFirst
}

// Category resolves name among the categories of type t.
func Category(categories []domain.Category, name string, t domain.CategoryType) (domain.Category, MatchKind) {
	var candidates []domain.Category
	for _, c := range categories {
		if c.Type == t {
			candidates = append(candidates, c)
		}
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	i, kind := index(names, name, FallbackCategoryName)
	if kind == NoMatch {
		return domain.Category{}, NoMatch
	}
	return candidates[i], kind
}

// Account resolves name among accounts. There is no named fallback; the
// first account is used when nothing matches.
func Account(accounts []domain.Account, name string) (domain.Account, MatchKind) {
	names := make([]string, len(accounts))
	for i, a := range accounts {
		names[i] = a.Name
	}
	i, kind := index(names, name, "")
	if kind == NoMatch {
		return domain.Account{}, NoMatch
	}
	return accounts[i], kind
}

// FindCategoryExact returns the category of type t whose folded name equals
// name. Unlike Category it never falls back.
func FindCategoryExact(categories []domain.Category, name string, t domain.CategoryType) (domain.Category, bool) {
	q := Fold(name)
	for _, c := range categories {
		if c.Type == t && Fold(c.Name) == q {
			return c, true
		}
	}
	return domain.Category{}, false
}

func FindAccountExact(accounts []domain.Account, name string) (domain.Account, bool) {
	q := Fold(name)
	for _, a := range accounts {
		if Fold(a.Name) == q {
			return a, true
		}
	}
	return domain.Account{}, false
}
