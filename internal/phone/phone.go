// Package phone turns user-entered phone numbers into dialable strings and deep links.
//
// Normalization is a heuristic for an India-first audience, not E.164 validation:
// ten-digit mobile numbers starting with 6-9 get the 91 country code, everything else
// keeps its digits as entered.
package phone

import (
	"net/url"
	"strings"
)

const (
	defaultCountryCode = "91"
	whatsAppBaseURL    = "https://wa.me/"
)

// Digits drops every character that is not an ASCII digit.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize returns "+" followed by the country-coded digits, or "" when raw has no digits.
func Normalize(raw string) string {
	digits := Digits(raw)
	if digits == "" {
		return ""
	}
	if len(digits) == 10 && strings.ContainsRune("6789", rune(digits[0])) {
		digits = defaultCountryCode + digits
	}
	return "+" + digits
}

// CallLink returns a click-to-call URI.
func CallLink(raw string) string {
	return "tel:" + Digits(raw)
}

// WhatsAppLink returns a wa.me chat link, optionally with a pre-filled message.
func WhatsAppLink(raw, message string) string {
	link := whatsAppBaseURL + strings.TrimPrefix(Normalize(raw), "+")
	if message != "" {
		link += "?text=" + encodeComponent(message)
	}
	return link
}

// componentUnescaper restores the characters a browser's encodeURIComponent leaves
// literal, and writes spaces as %20.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent percent-encodes s for a query value the way encodeURIComponent does.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
