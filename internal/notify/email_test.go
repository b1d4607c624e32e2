package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
		FromName:  "",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != DefaultFromName {
		t.Errorf("expected default from name %q, got %q", DefaultFromName, sender.fromName)
	}
}

func TestNewSendGridSender_CustomFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
		FromName:  "Custom Name",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Custom Name" {
		t.Errorf("expected from name 'Custom Name', got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{
		client: nil,
	}

	err := sender.Send(context.Background(), EmailMessage{
		To:      []string{"recipient@example.com"},
		Subject: "Test",
		Body:    "Test body",
	})

	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestSendGridSender_BuildMessage(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "bookings@example.com"}, nil)

	m, err := sender.build(EmailMessage{
		To:       []string{"office@example.com", "owner@example.com"},
		ToName:   "Acme Remodeling",
		ReplyTo:  "scheduling@example.com",
		Subject:  "New booking",
		Body:     "plain",
		HTML:     "<p>html</p>",
		Category: CategoryBooking,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.From.Address != "bookings@example.com" || m.From.Name != DefaultFromName {
		t.Errorf("unexpected from %+v", m.From)
	}
	if len(m.Personalizations) != 1 || len(m.Personalizations[0].To) != 2 {
		t.Fatalf("expected one personalization with two recipients, got %+v", m.Personalizations)
	}
	if len(m.Content) != 2 || m.Content[0].Type != "text/plain" || m.Content[1].Type != "text/html" {
		t.Errorf("unexpected content %+v", m.Content)
	}
	if m.ReplyTo == nil || m.ReplyTo.Address != "scheduling@example.com" {
		t.Errorf("unexpected reply-to %+v", m.ReplyTo)
	}
	if len(m.Categories) != 1 || m.Categories[0] != CategoryBooking {
		t.Errorf("unexpected categories %v", m.Categories)
	}

	if _, err := sender.build(EmailMessage{Subject: "nobody"}); !errors.Is(err, errNoRecipients) {
		t.Errorf("expected errNoRecipients, got %v", err)
	}
}

func TestParseRecipients(t *testing.T) {
	got := ParseRecipients(" office@example.com,, owner@example.com ,")
	if len(got) != 2 || got[0] != "office@example.com" || got[1] != "owner@example.com" {
		t.Errorf("unexpected recipients %v", got)
	}
	if ParseRecipients("") != nil {
		t.Errorf("expected nil for empty input")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      []string{"recipient@example.com"},
		Subject: "Test Subject",
		Body:    "Test body",
	})
	if err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
	if err := sender.Send(context.Background(), EmailMessage{}); !errors.Is(err, errNoRecipients) {
		t.Errorf("expected errNoRecipients, got %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewSESSender_NilWithoutClient(t *testing.T) {
	if sender := NewSESSender(nil, SESConfig{FromEmail: "a@example.com"}, nil); sender != nil {
		t.Error("expected nil sender when client is nil")
	}
}

func TestSESSender_SendBuildsInput(t *testing.T) {
	api := &fakeSES{}
	sender := NewSESSender(api, SESConfig{FromEmail: "bookings@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:       []string{"office@example.com"},
		ReplyTo:  "scheduling@example.com",
		Subject:  "New booking",
		Body:     "plain",
		HTML:     "<p>html</p>",
		Category: CategoryBooking,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := api.input
	if got := aws.ToString(in.FromEmailAddress); got != DefaultFromName+" <bookings@example.com>" {
		t.Errorf("unexpected from address %q", got)
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "office@example.com" {
		t.Errorf("unexpected destination %v", in.Destination.ToAddresses)
	}
	if aws.ToString(in.Content.Simple.Body.Text.Data) != "plain" || aws.ToString(in.Content.Simple.Body.Html.Data) != "<p>html</p>" {
		t.Errorf("unexpected body")
	}
	if len(in.ReplyToAddresses) != 1 || in.ReplyToAddresses[0] != "scheduling@example.com" {
		t.Errorf("unexpected reply-to %v", in.ReplyToAddresses)
	}
	if len(in.EmailTags) != 1 || aws.ToString(in.EmailTags[0].Value) != CategoryBooking {
		t.Errorf("expected category tag, got %+v", in.EmailTags)
	}
}

func TestSESSender_SendWrapsError(t *testing.T) {
	boom := errors.New("throttled")
	sender := NewSESSender(&fakeSES{err: boom}, SESConfig{FromEmail: "bookings@example.com"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{To: []string{"x@example.com"}}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestSESSender_SkipsSendWithoutRecipients(t *testing.T) {
	api := &fakeSES{}
	sender := NewSESSender(api, SESConfig{FromEmail: "bookings@example.com"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{Subject: "nobody"}); !errors.Is(err, errNoRecipients) {
		t.Fatalf("expected errNoRecipients, got %v", err)
	}
	if api.input != nil {
		t.Error("SES should not be called without recipients")
	}
}
