package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Match sequences of non-alphanumeric characters
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Match leading/trailing hyphens
	trimHyphens = regexp.MustCompile(`^-+|-+$`)
)

// SlugWords splits a counter name into lowercase, accent-free words.
// "Café Push-ups!" becomes ["cafe", "push", "ups"].
func SlugWords(s string) []string {
	s = strings.ToLower(s)
	s = removeAccents(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = trimHyphens.ReplaceAllString(s, "")

	if s == "" {
		return nil
	}

	return strings.Split(s, "-")
}

// Slugify joins SlugWords with hyphens, giving a form of a name that is easy
// to type on a command line.
func Slugify(s string) string {
	return strings.Join(SlugWords(s), "-")
}

// SlugHasPrefix reports whether the slug of ref is a word-aligned prefix of
// the slug of name: "push" matches "Push-ups", "pus" does not.
func SlugHasPrefix(name, ref string) bool {
	nameWords := SlugWords(name)
	refWords := SlugWords(ref)
	if len(refWords) == 0 || len(refWords) > len(nameWords) {
		return false
	}
	for i, w := range refWords {
		if nameWords[i] != w {
			return false
		}
	}
	return true
}

func removeAccents(s string) string {
	// NFD splits accented letters into base + combining mark; drop the marks.
	result := norm.NFD.String(s)

	var b strings.Builder
	for _, r := range result {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}

	return b.String()
}
