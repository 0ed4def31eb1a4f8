package awssns_test

import (
	"context"
	"errors"
	"testing"

	"sms-dispatch-gateway/internal/adapters/provider/awssns"
	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	input *sns.PublishInput
	out   *sns.PublishOutput
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	return f.out, f.err
}

func adapterWith(f *fakePublisher) *awssns.Adapter {
	return awssns.NewWithClient(func(domain.Provider) awssns.PublishAPI { return f })
}

func testProvider(senderID string) domain.Provider {
	return domain.Provider{
		ID:       "sns1",
		Name:     "SNS",
		Type:     domain.ProviderAWSSNS,
		State:    domain.ProviderEnabled,
		SenderID: senderID,
		Credentials: domain.Credentials{
			AWSRegion: "us-east-1",
			AWSAccess: "AKIA...",
			AWSSecret: "secret",
		},
	}
}

func TestSend_Success(t *testing.T) {
	t.Parallel()

	fake := &fakePublisher{out: &sns.PublishOutput{MessageId: aws.String("sns-msg-1")}}

	out := adapterWith(fake).Send(context.Background(), testProvider("ACME"), "+8801712345678", "hello")

	require.True(t, out.Success)
	assert.Equal(t, "sns-msg-1", out.CorrelationID)

	require.NotNil(t, fake.input)
	assert.Equal(t, "+8801712345678", aws.ToString(fake.input.PhoneNumber))
	assert.Equal(t, "hello", aws.ToString(fake.input.Message))

	smsType := fake.input.MessageAttributes["AWS.SNS.SMS.SMSType"]
	assert.Equal(t, "Transactional", aws.ToString(smsType.StringValue))

	sender := fake.input.MessageAttributes["AWS.SNS.SMS.SenderID"]
	assert.Equal(t, "ACME", aws.ToString(sender.StringValue))
}

func TestSend_NoSenderIDAttribute(t *testing.T) {
	t.Parallel()

	fake := &fakePublisher{out: &sns.PublishOutput{MessageId: aws.String("sns-msg-2")}}

	out := adapterWith(fake).Send(context.Background(), testProvider(""), "+8801712345678", "hi")

	require.True(t, out.Success)
	_, present := fake.input.MessageAttributes["AWS.SNS.SMS.SenderID"]
	assert.False(t, present, "SenderID attribute must be omitted when unconfigured")
}

func TestSend_PublishError(t *testing.T) {
	t.Parallel()

	fake := &fakePublisher{err: errors.New("InvalidParameter: phone number")}

	out := adapterWith(fake).Send(context.Background(), testProvider(""), "+123", "hi")

	require.False(t, out.Success)
	assert.Equal(t, ports.FailureTransport, out.Kind)
	assert.Contains(t, out.ErrorDetail, "InvalidParameter")
}

func TestSend_MissingMessageID(t *testing.T) {
	t.Parallel()

	fake := &fakePublisher{out: &sns.PublishOutput{}}

	out := adapterWith(fake).Send(context.Background(), testProvider(""), "+8801712345678", "hi")

	require.False(t, out.Success)
	assert.Equal(t, ports.FailureMalformed, out.Kind)
	assert.Contains(t, out.ErrorDetail, "no message id")
}
