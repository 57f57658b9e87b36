package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignSending   CampaignStatus = "sending"
	CampaignCompleted CampaignStatus = "completed"
	CampaignFailed    CampaignStatus = "failed"
)

// Campaign captures the marketing brief a user fills in plus the content
// generated from it. It replaces the original's ambient session state with
// an explicit, caller-owned value.
type Campaign struct {
	ID             string    `json:"id"`
	CompanyName    string    `json:"company_name"`
	CampaignType   string    `json:"campaign_type"`
	TargetAudience string    `json:"target_audience"`
	Location       string    `json:"location"`
	Budget         string    `json:"budget"`
	Currency       string    `json:"currency"`
	Channels       []string  `json:"channels"`
	Duration       string    `json:"duration"`
	ProductInfo    string    `json:"product_info"`

	Blueprint string          `json:"blueprint,omitempty"`
	Template  MessageTemplate `json:"template"`

	Status      CampaignStatus `json:"status"`
	LastRunID   string         `json:"last_run_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsTerminal returns true if the campaign is in a final state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignCompleted || c.Status == CampaignFailed
}
