package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/wolfman30/ai-receptionist/internal/archive"
	appconfig "github.com/wolfman30/ai-receptionist/internal/config"
	"github.com/wolfman30/ai-receptionist/internal/notify"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// BuildEmailSender returns the configured sender, or nil when email is not
// set up. The nil is a true nil interface.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "log":
		logger.Info("email: log only")
		return notify.NewStubEmailSender(logger)
	case "ses":
		if awsCfg == nil || cfg.SendGridFromEmail == "" {
			logger.Warn("email: ses selected but aws config or from address missing")
			return nil
		}
		logger.Info("email: ses", "from", cfg.SendGridFromEmail)
		return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	default:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Info("email: disabled (no SENDGRID_API_KEY)")
			return nil
		}
		logger.Info("email: sendgrid", "from", cfg.SendGridFromEmail)
		return sender
	}
}

// BuildNotifier fans a committed booking out to the business email and, when
// a queue is configured, to the booking events queue.
func BuildNotifier(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.Fanout {
	if logger == nil {
		logger = logging.Default()
	}
	var fan notify.Fanout
	if sender := BuildEmailSender(cfg, awsCfg, logger); sender != nil && cfg.BookingNotifyEmail != "" {
		fan = append(fan, notify.NewService(sender, notify.ServiceConfig{
			To:           cfg.BookingNotifyEmail,
			ReplyTo:      cfg.BookingReplyTo,
			BusinessName: cfg.BusinessName,
			Location:     cfg.Location(),
		}, logger))
	}
	if cfg.BookingEventsQueueURL != "" && awsCfg != nil {
		logger.Info("booking events: sqs", "queue_url", cfg.BookingEventsQueueURL)
		fan = append(fan, notify.NewEventPublisher(sqs.NewFromConfig(*awsCfg), cfg.BookingEventsQueueURL))
	}
	return fan
}

// BuildArchiver returns the S3 transcript archiver, or nil when no bucket is
// configured.
func BuildArchiver(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *archive.Archiver {
	if cfg.TranscriptBucket == "" || awsCfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger.Info("transcript archive: s3", "bucket", cfg.TranscriptBucket)
	return archive.NewArchiver(archive.NewStore(s3.NewFromConfig(*awsCfg), cfg.TranscriptBucket, logger), logger)
}
