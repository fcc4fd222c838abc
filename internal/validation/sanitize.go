package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer is implemented by payloads whose free-text fields must not carry
// markup. BindAndValidate calls Sanitize between binding and validation.
type Sanitizer interface {
	Sanitize(clean func(string) string)
}

var strict = bluemonday.StrictPolicy()

// maxSanitizePasses bounds re-sanitizing of input whose unescaped form
// still contains markup, e.g. "&lt;script&gt;".
const maxSanitizePasses = 3

// Clean strips every HTML element from s and trims surrounding space.
// Plain text comes back unescaped, so "Tom & Jerry's" stays as typed.
func Clean(s string) string {
	for range maxSanitizePasses {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			break
		}
		s = next
	}

	if strings.ContainsAny(s, "<>") {
		s = strings.NewReplacer("<", "", ">", "").Replace(s)
	}

	return strings.TrimSpace(s)
}
