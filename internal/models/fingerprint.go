package models

import (
	"strings"
	"unicode"
)

// Fingerprint returns the normalized repeat-detection key for a question.
// Lowercased, punctuation stripped, whitespace collapsed: paraphrases stay
// distinct, exact rewordings of the same text collide. Works on any
// script; only letters and digits contribute to the key.
func Fingerprint(question string) string {
	var b strings.Builder
	b.Grow(len(question))
	for _, r := range strings.ToLower(question) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
