// Package province tags free text with a Spanish province name. It is a
// heuristic, not geocoding: a capitalized word that happens to match wins.
package province

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type namePattern struct {
	name string
	re   *regexp.Regexp
}

type Classifier struct {
	names  []namePattern
	titler cases.Caser
}

var (
	whitespace = regexp.MustCompile(`\s+`)

	// Whole-word run of uppercase letters from the Spanish alphabet. Go's \b
	// is ASCII-only, so boundaries are emulated with letter classes.
	uppercaseRun = regexp.MustCompile(`(?:^|[^\p{L}])([A-ZÁÉÍÓÚÜÑ]{4,15})(?:[^\p{L}]|$)`)
)

// NewClassifier builds a classifier over the given reference list of
// province names. Matching is whole-word and case-insensitive.
func NewClassifier(provinces []string) *Classifier {
	c := &Classifier{
		names:  make([]namePattern, 0, len(provinces)),
		titler: cases.Title(language.Spanish),
	}
	for _, p := range provinces {
		re := regexp.MustCompile(`(?i)(?:^|[^\p{L}])` + regexp.QuoteMeta(p) + `(?:[^\p{L}]|$)`)
		c.names = append(c.names, namePattern{name: p, re: re})
	}
	return c
}

// Classify returns the first province from the reference list found in text,
// or failing that a speculative title-cased uppercase token, or nil.
func (c *Classifier) Classify(text string) *string {
	if text == "" {
		return nil
	}
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}

	for _, np := range c.names {
		if np.re.MatchString(text) {
			name := np.name
			return &name
		}
	}

	if m := uppercaseRun.FindStringSubmatch(text); m != nil {
		guess := c.titler.String(m[1])
		return &guess
	}

	return nil
}
