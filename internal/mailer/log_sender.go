package mailer

import (
	"context"

	"github.com/angelmondragon/autoparts-backend/pkg/logger"
)

// LogSender writes messages to the log instead of delivering them. Bodies
// carry the code, so they are only logged outside production.
type LogSender struct {
	logg       *logger.Logger
	production bool
}

func NewLogSender(logg *logger.Logger, production bool) *LogSender {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSender{logg: logg, production: production}
}

func (s *LogSender) Name() string { return ProviderLog }

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	fields := map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
	}
	if !s.production {
		fields["body"] = msg.Text
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "mail.logged")
	return nil
}
