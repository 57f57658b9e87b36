package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/warroomhq/warroom/internal/domain"
	"github.com/warroomhq/warroom/internal/pkg/httpretry"
	"github.com/warroomhq/warroom/internal/pkg/logger"
)

// AIGenerator produces email copy from a campaign brief. Providers are
// tried in order: Anthropic, OpenAI, Bedrock. When none is configured or
// all fail, the local starter template is used so campaign building never
// blocks on an API outage.
type AIGenerator struct {
	anthropicKey   string
	anthropicModel string
	openaiKey      string
	openaiModel    string
	bedrock        *bedrockruntime.Client
	bedrockModelID string
	httpClient     httpretry.HTTPDoer

	anthropicURL string
	openaiURL    string
}

// AIOption configures an AIGenerator.
type AIOption func(*AIGenerator)

// WithAnthropic enables the Anthropic provider.
func WithAnthropic(apiKey, model string) AIOption {
	return func(g *AIGenerator) {
		g.anthropicKey = apiKey
		if model != "" {
			g.anthropicModel = model
		}
	}
}

// WithOpenAI enables the OpenAI provider.
func WithOpenAI(apiKey, model string) AIOption {
	return func(g *AIGenerator) {
		g.openaiKey = apiKey
		if model != "" {
			g.openaiModel = model
		}
	}
}

// WithBedrock enables the AWS Bedrock provider.
func WithBedrock(region, modelID string) AIOption {
	return func(g *AIGenerator) {
		if region == "" {
			region = "us-east-1"
		}
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
		if err != nil {
			logger.Warn("bedrock unavailable", "error", err.Error())
			return
		}
		g.bedrock = bedrockruntime.NewFromConfig(cfg)
		if modelID != "" {
			g.bedrockModelID = modelID
		}
	}
}

// NewAIGenerator creates a content generator with the given providers.
func NewAIGenerator(opts ...AIOption) *AIGenerator {
	g := &AIGenerator{
		anthropicModel: "claude-sonnet-4-20250514",
		openaiModel:    "gpt-4o",
		bedrockModelID: "anthropic.claude-3-5-sonnet-20241022-v2:0",
		httpClient:     httpretry.NewRetryClient(&http.Client{Timeout: 60 * time.Second}, 2),
		anthropicURL:   "https://api.anthropic.com/v1/messages",
		openaiURL:      "https://api.openai.com/v1/chat/completions",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Brief describes the campaign the copy is generated for.
type Brief struct {
	CompanyName  string             `json:"company_name"`
	CampaignType string             `json:"campaign_type"`
	Audience     string             `json:"audience"`
	Tone         string             `json:"tone"`
	ContentType  domain.ContentType `json:"content_type"`
}

// GenerateTemplate produces a message template for the brief. The subject
// and body keep the {first_name}, {name} and {email} tokens so the send
// loop can personalize per recipient.
func (g *AIGenerator) GenerateTemplate(ctx context.Context, brief Brief) (domain.MessageTemplate, error) {
	prompt := g.buildPrompt(brief)

	if g.anthropicKey != "" {
		if tmpl, err := g.parseResponse(brief, g.callAnthropic(ctx, prompt)); err == nil {
			return tmpl, nil
		} else {
			logger.Warn("anthropic generation failed", "error", err.Error())
		}
	}
	if g.openaiKey != "" {
		if tmpl, err := g.parseResponse(brief, g.callOpenAI(ctx, prompt)); err == nil {
			return tmpl, nil
		} else {
			logger.Warn("openai generation failed", "error", err.Error())
		}
	}
	if g.bedrock != nil {
		if tmpl, err := g.parseResponse(brief, g.callBedrock(ctx, prompt)); err == nil {
			return tmpl, nil
		} else {
			logger.Warn("bedrock generation failed", "error", err.Error())
		}
	}

	return StarterTemplate(brief.CampaignType, brief.ContentType)
}

func (g *AIGenerator) buildPrompt(brief Brief) string {
	format := "plain text"
	if brief.ContentType == domain.ContentHTML {
		format = "a single self-contained HTML document with inline styles"
	}
	tone := brief.Tone
	if tone == "" {
		tone = "professional"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a marketing email for %s.\n", orDefault(brief.CompanyName, "our company"))
	fmt.Fprintf(&b, "Campaign type: %s. Audience: %s. Tone: %s.\n",
		orDefault(brief.CampaignType, "promotional"), orDefault(brief.Audience, "subscribers"), tone)
	fmt.Fprintf(&b, "Format the body as %s.\n", format)
	b.WriteString("Use the literal tokens {first_name}, {name} and {email} for personalization.\n")
	b.WriteString(`Respond with JSON only: {"subject": "...", "body": "..."}`)
	return b.String()
}

type aiCall func() (string, error)

// parseResponse runs a provider call and extracts the subject/body JSON.
func (g *AIGenerator) parseResponse(brief Brief, call aiCall) (domain.MessageTemplate, error) {
	raw, err := call()
	if err != nil {
		return domain.MessageTemplate{}, err
	}

	// Models sometimes wrap JSON in a code fence.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return domain.MessageTemplate{}, fmt.Errorf("parse AI response: %w", err)
	}
	if parsed.Subject == "" || parsed.Body == "" {
		return domain.MessageTemplate{}, fmt.Errorf("AI response missing subject or body")
	}

	return domain.MessageTemplate{
		Subject:     parsed.Subject,
		Body:        parsed.Body,
		ContentType: brief.ContentType,
	}, nil
}

func (g *AIGenerator) callAnthropic(ctx context.Context, prompt string) aiCall {
	return func() (string, error) {
		reqBody := map[string]interface{}{
			"model":      g.anthropicModel,
			"max_tokens": 2000,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		}

		body, _ := json.Marshal(reqBody)
		req, err := http.NewRequestWithContext(ctx, "POST", g.anthropicURL, bytes.NewReader(body))
		if err != nil {
			return "", err
		}

		req.Header.Set("x-api-key", g.anthropicKey)
		req.Header.Set("anthropic-version", "2023-06-01")
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != 200 {
			return "", fmt.Errorf("Anthropic error: %s", string(respBody))
		}

		var anthropicResp struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(respBody, &anthropicResp); err != nil {
			return "", err
		}
		if len(anthropicResp.Content) == 0 {
			return "", fmt.Errorf("no content")
		}
		return anthropicResp.Content[0].Text, nil
	}
}

func (g *AIGenerator) callOpenAI(ctx context.Context, prompt string) aiCall {
	return func() (string, error) {
		reqBody := map[string]interface{}{
			"model": g.openaiModel,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
			"max_tokens": 2000,
		}

		body, _ := json.Marshal(reqBody)
		req, err := http.NewRequestWithContext(ctx, "POST", g.openaiURL, bytes.NewReader(body))
		if err != nil {
			return "", err
		}

		req.Header.Set("Authorization", "Bearer "+g.openaiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != 200 {
			return "", fmt.Errorf("OpenAI error: %s", string(respBody))
		}

		var openAIResp struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(respBody, &openAIResp); err != nil {
			return "", err
		}
		if len(openAIResp.Choices) == 0 {
			return "", fmt.Errorf("no choices")
		}
		return openAIResp.Choices[0].Message.Content, nil
	}
}

func (g *AIGenerator) callBedrock(ctx context.Context, prompt string) aiCall {
	return func() (string, error) {
		request := map[string]interface{}{
			"anthropic_version": "bedrock-2023-05-31",
			"max_tokens":        2000,
			"messages": []map[string]interface{}{
				{
					"role": "user",
					"content": []map[string]string{
						{"type": "text", "text": prompt},
					},
				},
			},
		}

		requestBody, err := json.Marshal(request)
		if err != nil {
			return "", fmt.Errorf("marshal bedrock request: %w", err)
		}

		output, err := g.bedrock.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(g.bedrockModelID),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        requestBody,
		})
		if err != nil {
			return "", fmt.Errorf("Bedrock API error: %w", err)
		}

		var response struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(output.Body, &response); err != nil {
			return "", err
		}
		if len(response.Content) == 0 {
			return "", fmt.Errorf("no content")
		}
		return response.Content[0].Text, nil
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
