package content

import (
	"fmt"
	"strings"

	"github.com/osteele/liquid"

	"github.com/warroomhq/warroom/internal/domain"
)

// Starter email templates. The {first_name}, {name} and {email} tokens are
// left in place for per-recipient substitution at send time.

const htmlStarterTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>{{ campaign_type }}</title>
    <style>
        body { font-family: 'Segoe UI', Arial, sans-serif; max-width: 600px; margin: 0 auto; background-color: #f5f5f5; }
        .container { background-color: #ffffff; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 6px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px 20px; text-align: center; }
        .content { padding: 30px 20px; line-height: 1.6; color: #333; }
        .cta-button { background: #007bff; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; display: inline-block; margin: 20px 0; font-weight: bold; }
        .footer { background: #f8f9fa; padding: 20px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Hello {first_name}!</h1>
            <p>We have something special for you</p>
        </div>
        <div class="content">
            <p>Dear {name},</p>
            <p>We're excited to share this exclusive {{ campaign_type_lower }} with you.</p>
            <p>As a valued member of our community, you deserve the best we have to offer.</p>
            <div style="text-align: center;">
                <a href="#" class="cta-button">Discover More</a>
            </div>
            <p>Thank you for being part of our journey!</p>
        </div>
        <div class="footer">
            <p>Best regards,<br>The Marketing Team</p>
            <p>You received this email because you're subscribed to our updates.</p>
        </div>
    </div>
</body>
</html>
`

const plainStarterTemplate = `Hello {first_name},

We're excited to share this exclusive {{ campaign_type_lower }} with you.

As a valued member of our community, you deserve the best we have to offer.

Here's what makes this special:
- Personalized just for you
- Exclusive member benefits
- Limited-time opportunity
- Premium experience

Ready to explore? Visit our website or reply to this email.

Thank you for being part of our journey, {name}!

Best regards,
The Marketing Team

---
You received this email because you're subscribed to our updates.
Unsubscribe | Update Preferences
`

// StarterTemplate builds a ready-to-edit message template for a campaign
// type in the requested format.
func StarterTemplate(campaignType string, contentType domain.ContentType) (domain.MessageTemplate, error) {
	if campaignType == "" {
		campaignType = "Marketing Campaign"
	}

	src := plainStarterTemplate
	if contentType == domain.ContentHTML {
		src = htmlStarterTemplate
	}

	engine := liquid.NewEngine()
	body, err := engine.ParseAndRenderString(src, map[string]interface{}{
		"campaign_type":       campaignType,
		"campaign_type_lower": strings.ToLower(campaignType),
	})
	if err != nil {
		return domain.MessageTemplate{}, fmt.Errorf("render starter template: %w", err)
	}

	return domain.MessageTemplate{
		Subject:     fmt.Sprintf("Exclusive %s for {first_name}", campaignType),
		Body:        body,
		ContentType: contentType,
	}, nil
}
