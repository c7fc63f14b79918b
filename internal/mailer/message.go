package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

const verificationSubject = "Your AutoParts verification code"

// VerificationEmail is the payload the registration flow hands to the mail pipeline.
type VerificationEmail struct {
	To               string
	Name             string
	Code             string
	ExpiresInMinutes int
}

// Message is a fully rendered email ready for a Sender.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

var verificationText = texttemplate.Must(texttemplate.New("verification.txt").Parse(
	`Hi {{.Name}}, your verification code is {{.Code}}. It expires in {{.ExpiresInMinutes}} minutes.`))

var verificationHTML = htmltemplate.Must(htmltemplate.New("verification.html").Parse(`<div style="font-family:Inter,Arial,sans-serif;line-height:1.6;color:#111">
  <h2 style="margin:0 0 12px">Verify your email</h2>
  <p>Hi {{.Name}},</p>
  <p>Your verification code is:</p>
  <div style="font-size:28px;font-weight:700;letter-spacing:6px;padding:12px 0;color:#1d4ed8">{{.Code}}</div>
  <p style="color:#555">This code expires in {{.ExpiresInMinutes}} minutes. If you didn't request this, you can ignore this email.</p>
</div>`))

// RenderVerification builds the text and HTML bodies for a verification code.
func RenderVerification(v VerificationEmail) (Message, error) {
	if strings.TrimSpace(v.To) == "" {
		return Message{}, fmt.Errorf("recipient required")
	}
	if v.ExpiresInMinutes <= 0 {
		v.ExpiresInMinutes = 10
	}

	var text, html bytes.Buffer
	if err := verificationText.Execute(&text, v); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}
	if err := verificationHTML.Execute(&html, v); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	return Message{
		To:      v.To,
		Subject: verificationSubject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
