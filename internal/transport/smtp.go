package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/warroomhq/warroom/internal/domain"
)

// SMTPTransport delivers mail over SMTP with STARTTLS on the submission
// port, authenticated with a username/app-password pair. It opens one
// connection per send, which keeps the dispatcher agnostic about session
// state and survives servers that drop idle connections mid-run.
type SMTPTransport struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string

	// dial is swappable for tests.
	dial func(addr string) (*smtp.Client, error)
}

// NewSMTPTransport creates an SMTP transport. fromName is used in the From
// header ("Marketing Team <user@host>").
func NewSMTPTransport(host string, port int, username, password, fromName string) *SMTPTransport {
	if port == 0 {
		port = 587
	}
	return &SMTPTransport{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		FromName: fromName,
		dial: func(addr string) (*smtp.Client, error) {
			return smtp.Dial(addr)
		},
	}
}

func (t *SMTPTransport) addr() string {
	return net.JoinHostPort(t.Host, fmt.Sprintf("%d", t.Port))
}

// connect dials, negotiates STARTTLS and authenticates. The caller owns the
// returned client and must Quit or Close it.
func (t *SMTPTransport) connect() (*smtp.Client, error) {
	if t.Username == "" || t.Password == "" {
		return nil, ErrNotConfigured
	}

	c, err := t.dial(t.addr())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", t.addr(), err)
	}

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: t.Host}); err != nil {
			c.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", t.Username, t.Password, t.Host)
	if err := c.Auth(auth); err != nil {
		c.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}
	return c, nil
}

// Verify checks the transport is usable before a run starts: it dials,
// negotiates STARTTLS, authenticates and quits without sending anything.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := t.connect()
	if err != nil {
		return err
	}
	return c.Quit()
}

// Send delivers a single message. The error text, if any, carries the
// server's reply verbatim for the outcome log.
func (t *SMTPTransport) Send(ctx context.Context, address, subject, body string, contentType domain.ContentType) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := t.connect()
	if err != nil {
		return err
	}
	defer c.Quit()

	if err := c.Mail(t.Username); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(address); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	msg := buildMessage(t.FromName, t.Username, address, subject, body, contentType)
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return w.Close()
}

// buildMessage assembles an RFC 5322 message with a single text/html or
// text/plain part.
func buildMessage(fromName, fromAddr, to, subject, body string, contentType domain.ContentType) string {
	from := mail.Address{Name: fromName, Address: fromAddr}

	mimeType := "text/plain"
	if contentType == domain.ContentHTML {
		mimeType = "text/html"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=\"utf-8\"\r\n", mimeType)
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}
