package domain

import "strings"

// Recipient is an addressable target of a single outbound message.
// Identity is the address; it is stored case-normalized and trimmed.
type Recipient struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name,omitempty"`
}

// NewRecipient normalizes the address (lowercase, trimmed) and returns a
// Recipient. Validation happens later, at dispatch time, so that invalid
// addresses still appear in the outcome log.
func NewRecipient(address, displayName string) Recipient {
	return Recipient{
		Address:     strings.ToLower(strings.TrimSpace(address)),
		DisplayName: strings.TrimSpace(displayName),
	}
}

// Domain returns the part of the address after the last "@", lowercased,
// or "" when the address has no domain part.
func (r Recipient) Domain() string {
	at := strings.LastIndex(r.Address, "@")
	if at < 0 || at == len(r.Address)-1 {
		return ""
	}
	return strings.ToLower(r.Address[at+1:])
}
