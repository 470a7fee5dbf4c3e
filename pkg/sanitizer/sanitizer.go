package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reKeepLettersOnly = regexp.MustCompile(`[^\p{L}]+`)
	reTrimUnderscores = regexp.MustCompile(`_+`)
)

// TrimAndNormalize collapses runs of whitespace into single spaces and
// trims the ends.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// SanitizeName normalizes a patient or requester name for storage: single
// spaces, no surrounding whitespace, human-readable casing preserved.
func SanitizeName(name string) string {
	return TrimAndNormalize(name)
}

// SanitizeFreeText cleans condition/vitals/notes text: whitespace is
// collapsed and control characters are dropped. Content is otherwise kept
// verbatim; medical free text is not ours to rewrite.
func SanitizeFreeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' {
			continue
		}
		b.WriteRune(r)
	}
	return TrimAndNormalize(b.String())
}

// SanitizeDepartment normalizes an OPD department tag so "Cardiology" and
// " cardiology " queue into the same department.
func SanitizeDepartment(input string) string {
	p := Pipeline{
		func(s string) string { return strings.ToLower(strings.TrimSpace(s)) },
		func(s string) string { return reKeepLettersOnly.ReplaceAllString(s, "_") },
		func(s string) string { return strings.Trim(reTrimUnderscores.ReplaceAllString(s, "_"), "_") },
	}
	return p.Apply(input)
}
