// Package awssns implements SMS delivery through an Amazon SNS publish call.
// SNS assigns a MessageId on acceptance; that becomes the correlation ID.
package awssns

import (
	"context"

	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// PublishAPI is the slice of the SNS client the adapter needs. Tests inject a
// fake; production uses *sns.Client.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ClientFactory builds a publish client from provider credentials.
type ClientFactory func(p domain.Provider) PublishAPI

// Adapter implements ports.ProviderAdapter for Amazon SNS.
type Adapter struct {
	newClient ClientFactory
}

// New returns an SNS adapter that builds a real client per provider from its
// configured region and access-key pair.
func New() *Adapter {
	return &Adapter{newClient: func(p domain.Provider) PublishAPI {
		return sns.New(sns.Options{
			Region: p.Credentials.AWSRegion,
			Credentials: credentials.NewStaticCredentialsProvider(
				p.Credentials.AWSAccess, p.Credentials.AWSSecret, ""),
		})
	}}
}

// NewWithClient returns an adapter backed by the given factory. Used in tests.
func NewWithClient(factory ClientFactory) *Adapter {
	return &Adapter{newClient: factory}
}

// Send publishes one SMS. The number must be E.164.
func (a *Adapter) Send(ctx context.Context, p domain.Provider, number, message string) ports.SendOutcome {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if p.SenderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(p.SenderID),
		}
	}

	out, err := a.newClient(p).Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(number),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return ports.Refused(ports.FailureTransport, "aws error: "+err.Error())
	}
	if out.MessageId == nil || *out.MessageId == "" {
		return ports.Refused(ports.FailureMalformed, "aws no message id returned")
	}

	return ports.Accepted(*out.MessageId, *out.MessageId)
}
