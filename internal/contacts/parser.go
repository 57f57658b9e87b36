// Package contacts normalizes uploaded contact spreadsheets into recipient
// lists. Column detection is alias-based: files exported from CRMs rarely
// agree on header names, so each canonical field carries a list of known
// spellings.
package contacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/warroomhq/warroom/internal/domain"
	"github.com/warroomhq/warroom/internal/personalize"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrNoEmailColumn   = errors.New("no email column found in header")
	ErrNoValidContacts = errors.New("no valid contacts found")
)

// Common header aliases for auto-mapping.
var headerAliases = map[string][]string{
	"email":      {"email", "email_address", "e-mail", "emailaddress", "mail", "subscriber_email"},
	"name":       {"name", "full_name", "fullname", "contact_name", "contact"},
	"first_name": {"first_name", "firstname", "first", "fname", "given_name", "givenname"},
	"last_name":  {"last_name", "lastname", "last", "lname", "surname", "family_name"},
}

// columnMapping holds resolved column indexes; -1 means absent.
type columnMapping struct {
	email     int
	name      int
	firstName int
	lastName  int
}

// Result summarizes one parsed contact file.
type Result struct {
	Recipients []domain.Recipient `json:"recipients"`
	TotalRows  int                `json:"total_rows"`
	Skipped    int                `json:"skipped"`
}

// Parse reads a CSV contact file and returns the normalized recipient list.
// Addresses are lowercased and trimmed; rows with a missing or syntactically
// invalid address are skipped and counted. Display names come from the name
// columns when present, otherwise they are derived from the address.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	mapping, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Skipped++
			continue
		}
		res.TotalRows++

		address := strings.ToLower(strings.TrimSpace(field(row, mapping.email)))
		if address == "" || !personalize.ValidAddress(address) {
			res.Skipped++
			continue
		}

		res.Recipients = append(res.Recipients, domain.Recipient{
			Address:     address,
			DisplayName: resolveName(row, mapping, address),
		})
	}

	if len(res.Recipients) == 0 {
		return nil, ErrNoValidContacts
	}
	return res, nil
}

// mapColumns resolves header names to column indexes using the alias table.
// A fuzzy fallback catches headers that merely contain "email" or "mail".
func mapColumns(header []string) (columnMapping, error) {
	m := columnMapping{email: -1, name: -1, firstName: -1, lastName: -1}

	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	match := func(col string, canonical string) bool {
		for _, alias := range headerAliases[canonical] {
			if col == alias {
				return true
			}
		}
		return false
	}

	for i, col := range normalized {
		switch {
		case m.email < 0 && match(col, "email"):
			m.email = i
		case m.firstName < 0 && match(col, "first_name"):
			m.firstName = i
		case m.lastName < 0 && match(col, "last_name"):
			m.lastName = i
		case m.name < 0 && match(col, "name"):
			m.name = i
		}
	}

	if m.email < 0 {
		for i, col := range normalized {
			if strings.Contains(col, "email") || strings.Contains(col, "mail") {
				m.email = i
				break
			}
		}
	}
	if m.email < 0 {
		return m, ErrNoEmailColumn
	}
	return m, nil
}

func resolveName(row []string, m columnMapping, address string) string {
	var parts []string
	for _, idx := range []int{m.firstName, m.lastName} {
		if v := strings.TrimSpace(field(row, idx)); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		if v := strings.TrimSpace(field(row, m.name)); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return personalize.DeriveNameFromAddress(address)
	}
	return strings.Join(parts, " ")
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// stripBOM wraps a reader to strip a UTF-8 BOM if present. ReadFull is
// required here: a plain Read may return fewer than 3 bytes with more
// available, splitting the BOM into the first header cell.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return io.MultiReader(strings.NewReader(string(buf[:n])), r)
	}
	if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
