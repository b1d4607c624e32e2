package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store writes session records to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates a Store. With an empty bucket every operation is a no-op.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled reports whether archival is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// SessionKey is the object key a record is stored under.
func SessionKey(archivedAt time.Time, sessionID string) string {
	return fmt.Sprintf("sessions/v1/by-date/%d/%02d/%02d/%s.json",
		archivedAt.Year(), archivedAt.Month(), archivedAt.Day(), sessionID)
}

// ArchiveSession writes the record as JSON and appends it to the monthly
// manifest. A manifest failure is logged, not returned.
func (s *Store) ArchiveSession(ctx context.Context, record *SessionRecord) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	archivedAt := record.ArchivedAt
	if archivedAt.IsZero() {
		archivedAt = s.now().UTC()
	}
	key := SessionKey(archivedAt, record.SessionID)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", key, err)
	}
	s.logger.Info("archived session to S3",
		"session_id", record.SessionID,
		"s3_key", key,
		"message_count", record.MessageCount,
		"category", record.Category,
	)

	entry := ManifestEntry{
		SessionID:    record.SessionID,
		S3Key:        key,
		Category:     record.Category,
		Intent:       record.Intent,
		ArchivedAt:   archivedAt.Format(time.RFC3339),
		MessageCount: record.MessageCount,
	}
	if err := s.AppendManifest(ctx, archivedAt, entry); err != nil {
		s.logger.Warn("failed to append manifest", "error", err, "session_id", record.SessionID)
	}
	return nil
}

// AppendManifest appends a JSONL line to the manifest for the month of at.
// S3 has no append, so this is a read-modify-write.
func (s *Store) AppendManifest(ctx context.Context, at time.Time, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}
	key := fmt.Sprintf("sessions/v1/manifests/%d-%02d.jsonl", at.Year(), at.Month())

	var existing []byte
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(out.Body)
		_ = out.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("manifest not found, creating new", "key", key)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "StatusCode: 404")
}
