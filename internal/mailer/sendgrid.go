package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/angelmondragon/autoparts-backend/pkg/config"
)

const sendGridSendPath = "/v3/mail/send"

// SendGridSender posts messages to the SendGrid v3 mail send API.
type SendGridSender struct {
	client *resty.Client
	from   *mail.Address
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func NewSendGridSender(cfg config.SendgridConfig, from string) (*SendGridSender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.sendgrid.com"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetAuthToken(cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	return &SendGridSender{client: client, from: addr}, nil
}

func (s *SendGridSender) Name() string { return ProviderSendGrid }

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	body := sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: msg.To}}}},
		From:             sendGridAddress{Email: s.from.Address, Name: s.from.Name},
		Subject:          msg.Subject,
		Content: []sendGridContent{
			{Type: "text/plain", Value: msg.Text},
			{Type: "text/html", Value: msg.HTML},
		},
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(sendGridSendPath)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sendgrid send failed with status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
