// Package normalize canonicalizes user-entered identifiers before they are
// stored or compared.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmailDomain returns the normalized domain part of an email address, or
// "" when s has no usable domain.
func EmailDomain(s string) string {
	e := Email(s)
	at := strings.LastIndexByte(e, '@')
	if at < 0 || at == len(e)-1 {
		return ""
	}
	return e[at+1:]
}

// Domain lowercases, trims and strips a leading "@" from a configured domain.
func Domain(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "@")
}

// Name trims a display name and collapses internal runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
