// Package pluralization provides the pluralization service used to derive
// entity set and table names from entity type names.
package pluralization

import (
	"strings"

	"github.com/go-openapi/inflect"
)

// Service pluralizes and singularizes English words.
type Service interface {
	Pluralize(word string) string
	Singularize(word string) string
}

// Option configures the default service.
type Option func(*inflect.Ruleset)

// WithIrregular registers an irregular singular/plural pair.
func WithIrregular(singular, plural string) Option {
	return func(r *inflect.Ruleset) {
		r.AddIrregular(singular, plural)
	}
}

// WithUncountable registers a word that has no plural form.
func WithUncountable(word string) Option {
	return func(r *inflect.Ruleset) {
		r.AddUncountable(word)
	}
}

// english is the default Service backed by an inflect ruleset.
type english struct {
	rules *inflect.Ruleset
}

// New returns the default English pluralization service.
func New(opts ...Option) Service {
	rules := inflect.NewDefaultRuleset()
	for _, w := range acronyms {
		rules.AddAcronym(w)
	}
	for _, opt := range opts {
		opt(rules)
	}
	return &english{rules: rules}
}

// Common initialisms that must keep their casing.
var acronyms = []string{"ACL", "API", "ID", "JSON", "SQL", "URL", "UUID", "XML"}

// Pluralize returns the plural form of the last word of a Pascal case name,
// e.g. "OrderLine" becomes "OrderLines".
func (e *english) Pluralize(word string) string {
	head, last := splitLast(word)
	if last == "" {
		return word
	}
	return head + e.rules.Pluralize(last)
}

// Singularize returns the singular form of the last word of a Pascal case
// name.
func (e *english) Singularize(word string) string {
	head, last := splitLast(word)
	if last == "" {
		return word
	}
	return head + e.rules.Singularize(last)
}

// splitLast splits a Pascal case identifier before its last word.
func splitLast(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	i := len(s) - 1
	for i > 0 && !isUpper(s[i]) {
		i--
	}
	// Keep runs of capitals together, e.g. "UserACL".
	for i > 0 && isUpper(s[i-1]) && (i == len(s)-1 || isUpper(s[i+1])) {
		i--
	}
	return s[:i], s[i:]
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
