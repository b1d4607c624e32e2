package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/wolfman30/ai-receptionist/internal/scheduling"
)

// BookingConfirmedType is the event type published for committed bookings.
const BookingConfirmedType = "booking.confirmed.v1"

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// BookingConfirmedV1 is the queue payload for a committed booking.
type BookingConfirmedV1 struct {
	Type      string    `json:"type"`
	EventID   string    `json:"event_id"`
	Summary   string    `json:"summary"`
	SlotStart time.Time `json:"slot_start"`
	SlotEnd   time.Time `json:"slot_end"`
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Intent    string    `json:"intent,omitempty"`
	BookedAt  time.Time `json:"booked_at"`
}

// EventPublisher publishes booking events to an SQS queue for downstream
// consumers (CRM sync, follow-up texts).
type EventPublisher struct {
	client   sqsAPI
	queueURL string
}

// NewEventPublisher wraps an SQS client.
func NewEventPublisher(client sqsAPI, queueURL string) *EventPublisher {
	if client == nil {
		panic("notify: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("notify: SQS queueURL cannot be empty")
	}
	return &EventPublisher{client: client, queueURL: queueURL}
}

func (p *EventPublisher) BookingConfirmed(ctx context.Context, rec scheduling.BookingRecord) error {
	body, err := json.Marshal(BookingConfirmedV1{
		Type:      BookingConfirmedType,
		EventID:   rec.EventID,
		Summary:   rec.Subject,
		SlotStart: rec.Slot.Start.UTC(),
		SlotEnd:   rec.Slot.End.UTC(),
		Name:      rec.Attendee.Name,
		Phone:     rec.Attendee.Phone,
		Address:   rec.Attendee.Address,
		Intent:    rec.Attendee.Intent,
		BookedAt:  rec.BookedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("notify: marshal booking event: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(BookingConfirmedType)},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: failed to send SQS message: %w", err)
	}
	return nil
}

var _ BookingNotifier = (*EventPublisher)(nil)
