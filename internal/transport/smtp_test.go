package transport

import (
	"context"
	"strings"
	"testing"

	"github.com/warroomhq/warroom/internal/domain"
)

func TestBuildMessageHTML(t *testing.T) {
	msg := buildMessage("Marketing Team", "sender@x.com", "jane@x.com", "Hello Jane", "<p>Hi</p>", domain.ContentHTML)

	for _, want := range []string{
		"From: \"Marketing Team\" <sender@x.com>\r\n",
		"To: jane@x.com\r\n",
		"Subject: Hello Jane\r\n",
		"Content-Type: text/html; charset=\"utf-8\"\r\n",
		"\r\n<p>Hi</p>\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildMessagePlain(t *testing.T) {
	msg := buildMessage("Team", "sender@x.com", "a@x.com", "Plain", "hello", domain.ContentPlain)
	if !strings.Contains(msg, "Content-Type: text/plain; charset=\"utf-8\"\r\n") {
		t.Fatalf("expected plain content type:\n%s", msg)
	}
}

func TestSMTPVerifyWithoutCredentials(t *testing.T) {
	tr := NewSMTPTransport("smtp.example.com", 587, "", "", "Team")
	if err := tr.Verify(context.Background()); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSMTPSendCancelledContext(t *testing.T) {
	tr := NewSMTPTransport("smtp.example.com", 587, "user", "pass", "Team")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tr.Send(ctx, "a@x.com", "s", "b", domain.ContentPlain); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
