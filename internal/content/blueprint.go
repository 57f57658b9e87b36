// Package content generates campaign collateral: strategy blueprints,
// starter email templates, AI-assisted copy, and RSS-driven newsletters.
package content

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/osteele/liquid"
)

// CountryInfo holds per-market metadata used by blueprints and analytics.
type CountryInfo struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Currency string  `json:"currency"`
}

// Supported target markets. "Global" is the catch-all.
var countriesData = map[string]CountryInfo{
	"Global":         {0, 0, "USD"},
	"United States":  {39.8283, -98.5795, "USD"},
	"Canada":         {56.1304, -106.3468, "CAD"},
	"United Kingdom": {55.3781, -3.4360, "GBP"},
	"Germany":        {51.1657, 10.4515, "EUR"},
	"France":         {46.6034, 1.8883, "EUR"},
	"India":          {20.5937, 78.9629, "INR"},
	"Australia":      {-25.2744, 133.7751, "AUD"},
	"Japan":          {36.2048, 138.2529, "JPY"},
	"China":          {35.8617, 104.1954, "CNY"},
	"Brazil":         {-14.2350, -51.9253, "BRL"},
}

// Countries returns the supported target markets, sorted, with Global first.
func Countries() []string {
	out := make([]string, 0, len(countriesData))
	for name := range countriesData {
		if name != "Global" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return append([]string{"Global"}, out...)
}

// CountryFor returns market metadata, falling back to Global.
func CountryFor(location string) CountryInfo {
	if info, ok := countriesData[location]; ok {
		return info
	}
	return countriesData["Global"]
}

// BlueprintParams describes the campaign a blueprint is generated for.
type BlueprintParams struct {
	CompanyName    string   `json:"company_name"`
	CampaignType   string   `json:"campaign_type"`
	TargetAudience string   `json:"target_audience"`
	Location       string   `json:"location"`
	Channels       []string `json:"channels"`
	Budget         string   `json:"budget"`
	Currency       string   `json:"currency"`
}

const blueprintTemplate = `# {{ company_name }} - {{ campaign_type }} Campaign Strategy

## Campaign Overview
- **Company:** {{ company_name }}
- **Campaign Type:** {{ campaign_type }}
- **Target Market:** {{ location }}
- **Budget:** {{ budget }} {{ currency }}
- **Channels:** {{ channels }}

## Target Audience
{{ target_audience }}

## Campaign Objectives
1. **Increase Brand Awareness** - Reach new potential customers
2. **Drive Engagement** - Generate meaningful interactions
3. **Boost Conversions** - Turn prospects into customers
4. **Build Customer Loyalty** - Strengthen relationships

## Implementation Strategy

### Phase 1: Preparation (Week 1-2)
- Finalize creative assets and messaging
- Set up tracking and analytics
- Prepare email lists and segmentation
- Test all systems and workflows

### Phase 2: Launch (Week 3-4)
- Deploy campaigns across all channels
- Monitor performance in real-time
- Engage with audience responses
- Make quick optimizations as needed

### Phase 3: Optimization (Week 5-6)
- Analyze performance data
- A/B testing for improvement
- Scale successful elements
- Prepare follow-up campaigns

## Success Metrics
- **Reach:** Number of people exposed to campaign
- **Engagement:** Clicks, likes, shares, comments
- **Conversions:** Sign-ups, purchases, downloads
- **ROI:** Return on investment calculation

## Budget Allocation
- Creative Development: 25%
- Media/Advertising: 45%
- Technology & Tools: 20%
- Analytics & Reporting: 10%

## Next Steps
1. Review and approve this strategy
2. Begin creative asset development
3. Set up tracking systems
4. Launch campaign according to timeline
5. Monitor and optimize performance

---
*Campaign strategy generated on {{ generated_on }}*
`

// GenerateBlueprint renders a markdown campaign strategy document.
func GenerateBlueprint(params BlueprintParams) (string, error) {
	if params.CompanyName == "" {
		params.CompanyName = "Your Company"
	}
	if params.CampaignType == "" {
		params.CampaignType = "Marketing Campaign"
	}
	if params.TargetAudience == "" {
		params.TargetAudience = "Target Audience"
	}
	if params.Location == "" {
		params.Location = "Global"
	}
	if len(params.Channels) == 0 {
		params.Channels = []string{"Email"}
	}
	if params.Budget == "" {
		params.Budget = "TBD"
	}
	if params.Currency == "" {
		params.Currency = CountryFor(params.Location).Currency
	}

	engine := liquid.NewEngine()
	bindings := map[string]interface{}{
		"company_name":    params.CompanyName,
		"campaign_type":   params.CampaignType,
		"target_audience": params.TargetAudience,
		"location":        params.Location,
		"channels":        strings.Join(params.Channels, ", "),
		"budget":          params.Budget,
		"currency":        params.Currency,
		"generated_on":    time.Now().Format("2006-01-02"),
	}

	out, err := engine.ParseAndRenderString(blueprintTemplate, bindings)
	if err != nil {
		return "", fmt.Errorf("render blueprint: %w", err)
	}
	return out, nil
}
