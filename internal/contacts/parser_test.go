package contacts

import (
	"io"
	"strings"
	"testing"
)

// oneByteReader returns at most one byte per Read, the way a network body
// or chunked upload may dribble data.
type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}

func TestParseBasic(t *testing.T) {
	csv := "email,name\njane@x.com,Jane Doe\nbob@x.com,Bob Lee\n"
	res, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(res.Recipients))
	}
	if res.Recipients[0].Address != "jane@x.com" || res.Recipients[0].DisplayName != "Jane Doe" {
		t.Fatalf("got %+v", res.Recipients[0])
	}
}

func TestParseHeaderAliases(t *testing.T) {
	cases := []string{
		"Email Address,First Name,Last Name\njohn@x.com,John,Smith\n",
		"E-MAIL,FNAME,LNAME\njohn@x.com,John,Smith\n",
		"subscriber_email,given_name,surname\njohn@x.com,John,Smith\n",
	}
	for _, csv := range cases {
		res, err := Parse(strings.NewReader(csv))
		if err != nil {
			t.Fatalf("parse %q: %v", csv, err)
		}
		r := res.Recipients[0]
		if r.Address != "john@x.com" || r.DisplayName != "John Smith" {
			t.Errorf("csv %q: got %+v", csv, r)
		}
	}
}

func TestParseFuzzyEmailColumn(t *testing.T) {
	csv := "customer_mail_addr,notes\nann@x.com,vip\n"
	res, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Recipients[0].Address != "ann@x.com" {
		t.Fatalf("got %+v", res.Recipients[0])
	}
}

func TestParseDerivesNameWhenMissing(t *testing.T) {
	csv := "email\njohn.smith123@co.com\n"
	res, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Recipients[0].DisplayName != "John Smith" {
		t.Fatalf("got %q", res.Recipients[0].DisplayName)
	}
}

func TestParseNormalizesAndSkipsInvalid(t *testing.T) {
	csv := "email,name\n  JANE@X.COM  ,Jane\nnot-an-email,Nobody\n,Empty\nbob@x.com,Bob\n"
	res, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Recipients) != 2 {
		t.Fatalf("expected 2 valid recipients, got %d", len(res.Recipients))
	}
	if res.Recipients[0].Address != "jane@x.com" {
		t.Fatalf("address not normalized: %q", res.Recipients[0].Address)
	}
	if res.Skipped != 2 {
		t.Fatalf("expected 2 skipped, got %d", res.Skipped)
	}
}

func TestParseBOM(t *testing.T) {
	csv := "\xEF\xBB\xBFemail\njane@x.com\n"
	res, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Recipients) != 1 {
		t.Fatalf("expected 1 recipient, got %d", len(res.Recipients))
	}
}

func TestParseBOMAcrossShortReads(t *testing.T) {
	csv := "\xEF\xBB\xBFemail\njane@x.com\n"
	res, err := Parse(oneByteReader{strings.NewReader(csv)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Recipients) != 1 {
		t.Fatalf("expected 1 recipient, got %d", len(res.Recipients))
	}
	if res.Recipients[0].Address != "jane@x.com" {
		t.Fatalf("BOM leaked into header mapping: %+v", res.Recipients[0])
	}
}

func TestParseNoEmailColumn(t *testing.T) {
	if _, err := Parse(strings.NewReader("name,phone\nJane,555\n")); err != ErrNoEmailColumn {
		t.Fatalf("expected ErrNoEmailColumn, got %v", err)
	}
}

func TestParseEmptyFile(t *testing.T) {
	if _, err := Parse(strings.NewReader("")); err != ErrEmptyFile {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestParseNoValidContacts(t *testing.T) {
	if _, err := Parse(strings.NewReader("email\nnope\n")); err != ErrNoValidContacts {
		t.Fatalf("expected ErrNoValidContacts, got %v", err)
	}
}
