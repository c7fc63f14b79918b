package mailer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/autoparts-backend/pkg/logger"
	"github.com/angelmondragon/autoparts-backend/pkg/metrics"
)

const (
	kindVerification = "verification"

	fieldKind       = "kind"
	fieldTo         = "to"
	fieldName       = "name"
	fieldCode       = "code"
	fieldExpiresIn  = "expires_in_minutes"
	fieldEnqueuedAt = "enqueued_at"
)

type streamWriter interface {
	XAdd(ctx context.Context, stream string, values map[string]any) (string, error)
}

// Queue appends mail jobs to a Redis stream consumed by the mail worker.
type Queue struct {
	writer  streamWriter
	stream  string
	metrics *metrics.MailMetrics
	logg    *logger.Logger
}

func NewQueue(writer streamWriter, stream string, mailMetrics *metrics.MailMetrics, logg *logger.Logger) (*Queue, error) {
	if writer == nil {
		return nil, fmt.Errorf("stream writer required")
	}
	if stream == "" {
		return nil, fmt.Errorf("stream name required")
	}
	return &Queue{writer: writer, stream: stream, metrics: mailMetrics, logg: logg}, nil
}

// EnqueueVerification publishes a verification email job onto the stream.
func (q *Queue) EnqueueVerification(ctx context.Context, v VerificationEmail) error {
	id, err := q.writer.XAdd(ctx, q.stream, encodeVerification(v, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("enqueue verification email: %w", err)
	}
	q.metrics.IncEnqueued(kindVerification)
	if q.logg != nil {
		q.logg.Debug(q.logg.WithFields(ctx, map[string]any{"stream": q.stream, "message_id": id}), "mail.enqueued")
	}
	return nil
}

func encodeVerification(v VerificationEmail, at time.Time) map[string]any {
	return map[string]any{
		fieldKind:       kindVerification,
		fieldTo:         v.To,
		fieldName:       v.Name,
		fieldCode:       v.Code,
		fieldExpiresIn:  strconv.Itoa(v.ExpiresInMinutes),
		fieldEnqueuedAt: at.Format(time.RFC3339),
	}
}

func decodeVerification(values map[string]any) (VerificationEmail, error) {
	str := func(key string) string {
		switch v := values[key].(type) {
		case string:
			return v
		case []byte:
			return string(v)
		case nil:
			return ""
		default:
			return fmt.Sprint(v)
		}
	}
	if kind := str(fieldKind); kind != kindVerification {
		return VerificationEmail{}, fmt.Errorf("unsupported mail kind %q", kind)
	}
	out := VerificationEmail{
		To:   str(fieldTo),
		Name: str(fieldName),
		Code: str(fieldCode),
	}
	if out.To == "" || out.Code == "" {
		return VerificationEmail{}, fmt.Errorf("verification message missing recipient or code")
	}
	if raw := str(fieldExpiresIn); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			return VerificationEmail{}, fmt.Errorf("invalid %s %q", fieldExpiresIn, raw)
		}
		out.ExpiresInMinutes = minutes
	}
	return out, nil
}
