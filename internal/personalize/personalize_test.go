package personalize

import "testing"

func TestPersonalizeTokens(t *testing.T) {
	got := Personalize("Hi {first_name}, {name} <{email}>", "Jane Doe", "jane@x.com")
	want := "Hi Jane, Jane Doe <jane@x.com>"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPersonalizeDoubledBraces(t *testing.T) {
	got := Personalize("Hello {{first_name}}! ({{email}})", "Bob Lee", "bob@x.com")
	want := "Hello Bob! (bob@x.com)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPersonalizeRepeatedTokens(t *testing.T) {
	got := Personalize("{name} {name} {name}", "Ann", "ann@x.com")
	if got != "Ann Ann Ann" {
		t.Fatalf("got %q", got)
	}
}

func TestPersonalizeIdempotentWithoutTokens(t *testing.T) {
	tmpl := "no placeholders here, just {unknown} text"
	once := Personalize(tmpl, "Jane Doe", "jane@x.com")
	twice := Personalize(once, "Jane Doe", "jane@x.com")
	if once != tmpl {
		t.Fatalf("unrecognized tokens must survive, got %q", once)
	}
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}

func TestPersonalizeDeterministicWithTokenBearingName(t *testing.T) {
	// Display names come straight from uploaded files and may themselves
	// contain a placeholder. The output must be the same on every call and
	// the embedded token must stay literal.
	want := "Dear Jane {email}"
	for i := 0; i < 200; i++ {
		if got := Personalize("Dear {name}", "Jane {email}", "jane@x.com"); got != want {
			t.Fatalf("call %d: got %q, want %q", i, got, want)
		}
	}
}

func TestPersonalizeEmptyName(t *testing.T) {
	got := Personalize("Dear {name}", "", "x@y.com")
	if got != "Dear "+FallbackName {
		t.Fatalf("got %q", got)
	}
}

func TestDeriveNameFromAddress(t *testing.T) {
	cases := []struct {
		address string
		want    string
	}{
		{"john.smith123@co.com", "John Smith"},
		{"___@co.com", FallbackName},
		{"a1@co.com", FallbackName},
		{"mary_jane.watson@daily.com", "Mary Jane Watson"},
		{"BOB@co.com", "Bob"},
	}
	for _, c := range cases {
		if got := DeriveNameFromAddress(c.address); got != c.want {
			t.Errorf("DeriveNameFromAddress(%q) = %q, want %q", c.address, got, c.want)
		}
	}
}

func TestValidAddress(t *testing.T) {
	valid := []string{"a@x.com", "john.smith+tag@sub.example.org"}
	invalid := []string{"not-an-email", "", "a@b", "@x.com", "a b@x.com"}
	for _, a := range valid {
		if !ValidAddress(a) {
			t.Errorf("expected %q to be valid", a)
		}
	}
	for _, a := range invalid {
		if ValidAddress(a) {
			t.Errorf("expected %q to be invalid", a)
		}
	}
}

func TestResolveDisplayName(t *testing.T) {
	if got := ResolveDisplayName("Bob Lee", "whatever@x.com"); got != "Bob Lee" {
		t.Fatalf("got %q", got)
	}
	if got := ResolveDisplayName("  ", "jane.doe@x.com"); got != "Jane Doe" {
		t.Fatalf("got %q", got)
	}
}
