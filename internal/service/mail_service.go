package service

import (
	"context"
	"fmt"
	"html/template"

	"infinity/config"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"
)

var verificationTmpl = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Welcome to Infinity, {{.Name}}!</h2>
  <p>Please confirm your email address to finish setting up your account.</p>
  <p><a href="{{.Link}}" style="background:#4f46e5;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">Verify email</a></p>
  <p>If the button does not work, open this link:<br>{{.Link}}</p>
</body>
</html>`))

// MailService sends account mail over SMTP.
type MailService struct {
	cfg config.MailConfig
}

// NewMailService returns nil when no SMTP host is configured.
func NewMailService(cfg config.MailConfig) *MailService {
	if cfg.Host == "" {
		return nil
	}
	return &MailService{cfg: cfg}
}

func (s *MailService) SendVerification(ctx context.Context, to, name, link string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject("Verify your Infinity account")
	data := struct{ Name, Link string }{Name: name, Link: link}
	if err := msg.SetBodyHTMLTemplate(verificationTmpl, data); err != nil {
		return fmt.Errorf("mail body: %w", err)
	}
	msg.AddAlternativeString(mail.TypeTextPlain, fmt.Sprintf("Hi %s,\n\nVerify your email: %s\n", name, link))

	client, err := s.client()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail send: %w", err)
	}
	log.Debug().Str("to", to).Msg("mail: verification sent")
	return nil
}

func (s *MailService) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail client: %w", err)
	}
	return c, nil
}
