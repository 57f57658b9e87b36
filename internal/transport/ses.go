package transport

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/warroomhq/warroom/internal/domain"
	"github.com/warroomhq/warroom/internal/pkg/logger"
)

// SESTransport delivers mail via AWS SES using the SDK v2. It satisfies the
// same contract as the SMTP transport so a run can be pointed at either.
type SESTransport struct {
	fromEmail string
	fromName  string
	region    string
	client    *sesv2.Client
}

// NewSESTransport creates an SES transport. With empty credentials the
// default AWS credential chain is used (IAM role on ECS).
func NewSESTransport(accessKey, secretKey, region, fromEmail, fromName string) (*SESTransport, error) {
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SESTransport{
		fromEmail: fromEmail,
		fromName:  fromName,
		region:    region,
		client:    sesv2.NewFromConfig(cfg),
	}, nil
}

// Verify checks the SES account is reachable and sending is enabled.
func (t *SESTransport) Verify(ctx context.Context) error {
	if t.client == nil {
		return ErrNotConfigured
	}
	out, err := t.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return fmt.Errorf("ses account check: %w", err)
	}
	if !out.SendingEnabled {
		return fmt.Errorf("ses sending disabled for account")
	}
	return nil
}

// Send delivers a single message through SES.
func (t *SESTransport) Send(ctx context.Context, address, subject, body string, contentType domain.ContentType) error {
	if t.client == nil {
		return ErrNotConfigured
	}

	msgBody := &types.Body{}
	content := &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")}
	if contentType == domain.ContentHTML {
		msgBody.Html = content
	} else {
		msgBody.Text = content
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", t.fromName, t.fromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{address}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body:    msgBody,
			},
		},
	}

	result, err := t.client.SendEmail(ctx, input)
	if err != nil {
		log.Printf("[SES] send to %s failed: %v", logger.RedactEmail(address), err)
		return err
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	logger.Debug("ses send accepted", "address", address, "message_id", messageID)
	return nil
}
