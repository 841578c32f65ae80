// Package inputval cleans and checks values typed into forms before they
// are sent to the API.
package inputval

import (
	"html"
	"net/mail"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Clean strips any markup, trims the ends and collapses runs of whitespace
// to a single space. The result is plain text; templates escape it again on
// output.
func Clean(s string) string {
	s = stripTags(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// CleanMultiline is Clean for free text: markup is stripped and the ends
// trimmed, but line breaks survive.
func CleanMultiline(s string) string {
	lines := strings.Split(stripTags(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripTags(s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}

// IsValidEmail reports whether email is a bare address (no display name)
// with a sane local part and domain.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || strings.ContainsAny(email, " \t<>") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// Result collects validation messages in the order they were found.
type Result struct {
	msgs []string
}

// Add records a message.
func (v *Result) Add(msg string) { v.msgs = append(v.msgs, msg) }

// Required records "<label> is required." when value is blank.
func (v *Result) Required(label, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(label + " is required.")
		return false
	}
	return true
}

// Email checks a required email field.
func (v *Result) Email(value string) {
	if !v.Required("Email", value) {
		return
	}
	if !IsValidEmail(value) {
		v.Add("Email address is not valid.")
	}
}

// MinLen records a message when value has fewer than n characters.
func (v *Result) MinLen(label, value string, n int) {
	if len([]rune(value)) < n {
		v.Add(label + " is too short.")
	}
}

// OK is true when nothing was recorded.
func (v *Result) OK() bool { return len(v.msgs) == 0 }

// Messages returns the recorded messages.
func (v *Result) Messages() []string { return append([]string(nil), v.msgs...) }

// Message joins every message for a single inline banner.
func (v *Result) Message() string { return strings.Join(v.msgs, " ") }
