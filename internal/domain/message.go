package domain

import "strings"

// ContentType indicates how a message body should be delivered.
type ContentType string

const (
	ContentHTML  ContentType = "html"
	ContentPlain ContentType = "plain"
)

// MessageTemplate holds the subject and body templates for a dispatch run.
// Both may contain the placeholder tokens {name}, {first_name} and {email}
// (doubled-brace forms {{name}} etc. are accepted as aliases). Substitution
// is textual and total: unresolved tokens are left as literal text.
type MessageTemplate struct {
	Subject     string      `json:"subject"`
	Body        string      `json:"body"`
	ContentType ContentType `json:"content_type"`
}

// DetectContentType sniffs a body for HTML markers the same way the send
// path decides between an html and plain MIME part.
func DetectContentType(body string) ContentType {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<p>") || strings.Contains(lower, "<body") {
		return ContentHTML
	}
	return ContentPlain
}
