// Package personalize implements per-recipient template personalization:
// placeholder substitution, display-name derivation from an address, and
// the syntactic address check used by the dispatcher.
package personalize

import (
	"regexp"
	"strings"
)

// FallbackName is used when no display name is given and nothing usable
// can be derived from the address local part.
const FallbackName = "Valued Customer"

var (
	addressRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	separatorRegex = regexp.MustCompile(`[0-9._\-]`)
)

// ValidAddress reports whether the address passes the syntactic email
// check. This is the only validation the dispatcher applies; deliverability
// is the transport's problem.
func ValidAddress(address string) bool {
	return addressRegex.MatchString(address)
}

// Personalize substitutes the recognized placeholder tokens in a template:
// {name} → displayName, {first_name} → its first whitespace-delimited
// segment, {email} → the raw address. Doubled-brace forms ({{name}} etc.)
// are aliases for the same substitutions and take precedence so the
// single-brace patterns never match their inner braces. Substitution is a
// single pass: tokens inside substituted values are not expanded.
// Unrecognized tokens are left as literal text; repeated tokens are all
// replaced.
func Personalize(template, displayName, address string) string {
	if template == "" {
		return template
	}
	name := displayName
	if name == "" {
		name = FallbackName
	}
	first := name
	if i := strings.IndexAny(name, " \t"); i > 0 {
		first = name[:i]
	}

	// Fixed substitution order: a substituted value may itself contain a
	// token (user-supplied display names come through uploads untouched),
	// so the order must not vary between calls.
	replacer := strings.NewReplacer(
		"{{name}}", name,
		"{{first_name}}", first,
		"{{email}}", address,
		"{name}", name,
		"{first_name}", first,
		"{email}", address,
	)
	return replacer.Replace(template)
}

// DeriveNameFromAddress builds a display name from the local part of an
// address: digits and separators become spaces, fragments of two or more
// letters are kept and capitalized. "john.smith123@co.com" → "John Smith".
// Falls back to FallbackName when nothing usable remains.
func DeriveNameFromAddress(address string) string {
	local := address
	if at := strings.Index(address, "@"); at >= 0 {
		local = address[:at]
	}
	cleaned := separatorRegex.ReplaceAllString(local, " ")

	var parts []string
	for _, p := range strings.Fields(cleaned) {
		if len(p) < 2 {
			continue
		}
		parts = append(parts, strings.ToUpper(p[:1])+strings.ToLower(p[1:]))
	}
	if len(parts) == 0 {
		return FallbackName
	}
	return strings.Join(parts, " ")
}

// ResolveDisplayName returns the given name when present, otherwise a name
// derived from the address.
func ResolveDisplayName(displayName, address string) string {
	if strings.TrimSpace(displayName) != "" {
		return strings.TrimSpace(displayName)
	}
	return DeriveNameFromAddress(address)
}
