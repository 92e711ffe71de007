// internal/app/system/notify/ses.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// sesAPI is the part of the SESv2 client we use.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends status emails through AWS SESv2.
type SES struct {
	client    sesAPI
	fromEmail string
	log       *zap.Logger
}

// NewSES loads the default AWS credential chain for region and returns an
// SES notifier sending from fromEmail.
func NewSES(ctx context.Context, region, fromEmail string, logger *zap.Logger) (*SES, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify: load aws config: %w", err)
	}
	return &SES{client: sesv2.NewFromConfig(cfg), fromEmail: fromEmail, log: logger}, nil
}

func (s *SES) SendStatusEmail(ctx context.Context, to, orgName, status, extra string) error {
	if to == "" {
		return fmt.Errorf("notify: no recipient")
	}
	subject := Subject(status)
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination:      &sestypes.Destination{ToAddresses: []string{to}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body:    &sestypes.Body{Text: &sestypes.Content{Data: aws.String(Body(orgName, status, extra))}},
			},
		},
	}
	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("notify: send email: %w", err)
	}
	s.log.Info("status email sent",
		zap.String("to", to),
		zap.String("status", status),
		zap.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}
