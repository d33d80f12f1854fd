package mail

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESSender sends notification emails via AWS SES using the SDK v2.
// All recipients of a batch go into a single SendEmail call, matching a
// single notice delivered to everyone affected.
type SESSender struct {
	from    string
	subject string
	client  *sesv2.Client
}

// NewSESSender creates an SES sender. Initializes the AWS SDK client with
// static credentials when provided, otherwise the default credential chain.
func NewSESSender(accessKey, secretKey, region, from, subject string) (*SESSender, error) {
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

	return &SESSender{
		from:    from,
		subject: subject,
		client:  sesv2.NewFromConfig(cfg),
	}, nil
}

// Send delivers the message to all recipients in one SES call. An empty
// recipient list is a no-op.
func (s *SESSender) Send(ctx context.Context, message string, recipients []string) error {
	if len(recipients) == 0 {
		log.Printf("[mail] no recipients, skipping send")
		return nil
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(s.subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(message), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	log.Printf("[mail] sent to %d recipients (id: %s)", len(recipients), messageID)
	return nil
}
