// Package notify delivers service-request alerts to doctors by email (SES)
// and SMS (SNS).
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/carepoint/backend/internal/config"
	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/internal/logger"
)

// Notifier alerts a doctor about a request assigned to them.
type Notifier interface {
	NotifyDoctor(ctx context.Context, doctor domain.Account, req domain.ServiceRequest) error
}

// Interfaces over the AWS clients so tests can swap them.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// AWSNotifier sends through whichever of SES and SNS is configured.
type AWSNotifier struct {
	ses       SESService
	sns       SNSService
	fromEmail string
	logger    logger.Logger
}

// NewAWSNotifier builds a notifier from config. It returns a Noop notifier
// when both channels are disabled.
func NewAWSNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (Notifier, error) {
	if !cfg.SES.Enabled && !cfg.SNS.Enabled {
		return Noop{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("notify: load AWS config: %w", err)
	}

	n := &AWSNotifier{fromEmail: cfg.SES.FromEmail, logger: log}
	if cfg.SES.Enabled {
		n.ses = ses.NewFromConfig(awsCfg)
	}
	if cfg.SNS.Enabled {
		n.sns = sns.NewFromConfig(awsCfg)
	}
	return n, nil
}

// NewNotifier wires explicit clients; either may be nil.
func NewNotifier(sesClient SESService, snsClient SNSService, fromEmail string, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{ses: sesClient, sns: snsClient, fromEmail: fromEmail, logger: log}
}

// NotifyDoctor emails the doctor and texts their phone when one is on file.
// Both channels are attempted; their errors are joined.
func (n *AWSNotifier) NotifyDoctor(ctx context.Context, doctor domain.Account, req domain.ServiceRequest) error {
	subject := "New service request"
	body := Message(req)

	var errs []error
	if n.ses != nil && doctor.Email != "" {
		if err := n.sendEmail(ctx, doctor.Email, subject, body); err != nil {
			n.logger.Error("failed to send email", map[string]interface{}{
				"doctor_id":  doctor.ID,
				"request_id": req.ID,
				"error":      err.Error(),
			})
			errs = append(errs, fmt.Errorf("notify: send email: %w", err))
		}
	}
	if n.sns != nil && doctor.Phone != "" {
		if err := n.sendSMS(ctx, doctor.Phone, body); err != nil {
			n.logger.Error("failed to send sms", map[string]interface{}{
				"doctor_id":  doctor.ID,
				"request_id": req.ID,
				"error":      err.Error(),
			})
			errs = append(errs, fmt.Errorf("notify: send sms: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (n *AWSNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.fromEmail),
	})
	return err
}

func (n *AWSNotifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// Message is the text shown to a doctor for a new request.
func Message(req domain.ServiceRequest) string {
	return fmt.Sprintf("New service request from %s", req.UserEmail)
}

// Noop drops every notification.
type Noop struct{}

func (Noop) NotifyDoctor(context.Context, domain.Account, domain.ServiceRequest) error {
	return nil
}
