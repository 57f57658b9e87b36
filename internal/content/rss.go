package content

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/warroomhq/warroom/internal/domain"
)

// FeedItem is one entry pulled from an RSS/Atom feed.
type FeedItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	PubDate     time.Time `json:"pub_date"`
}

// NewsletterBuilder turns an RSS/Atom feed into an email newsletter.
type NewsletterBuilder struct {
	parser   *gofeed.Parser
	maxItems int
}

// NewNewsletterBuilder creates a feed-backed newsletter builder.
func NewNewsletterBuilder(maxItems int) *NewsletterBuilder {
	if maxItems <= 0 {
		maxItems = 5
	}
	return &NewsletterBuilder{
		parser:   gofeed.NewParser(),
		maxItems: maxItems,
	}
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// stripHTML flattens feed descriptions to plain text for the digest.
func stripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(s, "")))
}

// Build fetches the feed and assembles an HTML newsletter template. The
// greeting keeps the {first_name} token for send-time personalization.
func (b *NewsletterBuilder) Build(ctx context.Context, feedURL string) (domain.MessageTemplate, []FeedItem, error) {
	feed, err := b.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return domain.MessageTemplate{}, nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	if len(feed.Items) == 0 {
		return domain.MessageTemplate{}, nil, fmt.Errorf("feed %s has no items", feedURL)
	}

	items := make([]FeedItem, 0, b.maxItems)
	for _, it := range feed.Items {
		if len(items) == b.maxItems {
			break
		}
		item := FeedItem{
			Title:       it.Title,
			Description: stripHTML(it.Description),
			Link:        it.Link,
		}
		if it.PublishedParsed != nil {
			item.PubDate = *it.PublishedParsed
		}
		items = append(items, item)
	}

	var body strings.Builder
	body.WriteString("<html><body style=\"font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;\">\n")
	fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(feed.Title))
	body.WriteString("<p>Hello {first_name}, here's what's new:</p>\n")
	for _, item := range items {
		body.WriteString("<div style=\"margin-bottom: 24px;\">\n")
		fmt.Fprintf(&body, "<h2><a href=\"%s\">%s</a></h2>\n", item.Link, html.EscapeString(item.Title))
		if item.Description != "" {
			fmt.Fprintf(&body, "<p>%s</p>\n", html.EscapeString(item.Description))
		}
		body.WriteString("</div>\n")
	}
	body.WriteString("<p style=\"font-size: 12px; color: #666;\">You received this email because you're subscribed to our updates.</p>\n")
	body.WriteString("</body></html>\n")

	tmpl := domain.MessageTemplate{
		Subject:     fmt.Sprintf("%s: %s", feed.Title, items[0].Title),
		Body:        body.String(),
		ContentType: domain.ContentHTML,
	}
	return tmpl, items, nil
}
