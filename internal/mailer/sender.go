package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/autoparts-backend/pkg/config"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
)

const (
	ProviderLog      = "log"
	ProviderSendGrid = "sendgrid"
	ProviderSMTP     = "smtp"
)

// Sender delivers a rendered message through a provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// NewSender picks the provider configured for the environment.
func NewSender(cfg config.MailConfig, production bool, logg *logger.Logger) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderLog:
		return NewLogSender(logg, production), nil
	case ProviderSendGrid:
		return NewSendGridSender(cfg.Sendgrid, cfg.From)
	case ProviderSMTP:
		return NewSMTPSender(cfg.SMTP, cfg.From)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
