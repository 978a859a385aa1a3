package platform

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// PlacementPublisher wraps an SQS client and the placements queue URL.
// Confirmed checkouts are handed to the placement worker through it.
type PlacementPublisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPlacementPublisher returns a publisher bound to a queue URL.
func NewPlacementPublisher(sqsClient SQSAPI, queueURL string) *PlacementPublisher {
	return &PlacementPublisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// SendPlacement sends a placement message to SQS. messageBody should be a
// JSON string; attributes are sent as string MessageAttributes.
func (p *PlacementPublisher) SendPlacement(ctx context.Context, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
	}
	if len(attributes) > 0 {
		msgAttrs := map[string]sqstypes.MessageAttributeValue{}
		for k, v := range attributes {
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: &v,
			}
		}
		input.MessageAttributes = msgAttrs
	}

	_, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
