package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/thearyanahmed/newsletter/internal/model"
)

const utf8Charset = "UTF-8"

// SESConfig configures the AWS SES provider.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the SES endpoint, e.g. for LocalStack.
	Endpoint string
	Sender   model.SubscriberEmail
	// Timeout bounds each SendEmail call; DialTimeout bounds connecting.
	// Zero selects DefaultTimeout and DefaultDialTimeout.
	Timeout     time.Duration
	DialTimeout time.Duration
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESClient sends email through AWS SES v2. SDK retries are disabled.
type SESClient struct {
	api    sesAPI
	sender model.SubscriberEmail
}

// NewSESClient loads AWS configuration and builds the SES client.
// Static credentials are used when both keys are set, otherwise the default chain.
func NewSESClient(ctx context.Context, cfg SESConfig) (*SESClient, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}

	// The SDK's default client has no overall request deadline.
	httpClient := awshttp.NewBuildableClient().
		WithTimeout(cfg.Timeout).
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = cfg.DialTimeout
		})

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
		awsconfig.WithHTTPClient(httpClient),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &SESClient{api: client, sender: cfg.Sender}, nil
}

// SendEmail sends one message with both HTML and text parts.
func (s *SESClient) SendEmail(ctx context.Context, recipient model.SubscriberEmail, subject, htmlBody, textBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender.String()),
		Destination:      &types.Destination{ToAddresses: []string{recipient.String()}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(utf8Charset)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String(utf8Charset)},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String(utf8Charset)},
				},
			},
		},
	}

	if _, err := s.api.SendEmail(ctx, input); err != nil {
		return &TransportError{StatusCode: httpStatusOf(err), Err: err}
	}
	return nil
}

func httpStatusOf(err error) int {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}
