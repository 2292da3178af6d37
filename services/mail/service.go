package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/auth"
	"github.com/pomclinic/intake/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const resetRequestedBody = `<p>Dear {{.Name}},<br/><br/>
You have requested a password reset for your <a href="https://peaceofmindspine.com">peaceofmindspine.com</a> account.
Please click on the following <a href="{{.ResetURL}}" target="_self">link</a> to reset your password.
The link is valid for 1 hour.</p>`

const resetCompletedBody = `<p>Dear {{.Name}},<br/><br/>
The password for your account was just changed. If this was not you, please contact us immediately.</p>`

// Service sends the clinic's transactional email over SMTP. It consumes
// payloads assembled by the auth orchestrator and knows nothing about
// tokens beyond the reset URL it is handed.
type Service struct {
	config    *config.MailConfig
	client    *mail.Client
	templates *template.Template
	logger    *logging.Service
}

func NewService(cfg *config.MailConfig, logger *logging.Service) (*Service, error) {
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("INTAKE_MAIL_FROM_ADDRESS is required")
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Port),
	}

	switch cfg.Encryption {
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}

	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		if logger != nil {
			logger.Error("failed to create mail client",
				zap.Error(err),
				zap.String("host", cfg.Host))
		}
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	templates := template.New("mail")
	template.Must(templates.New("reset_requested").Parse(resetRequestedBody))
	template.Must(templates.New("reset_completed").Parse(resetCompletedBody))

	return &Service{
		config:    cfg,
		client:    client,
		templates: templates,
		logger:    logger,
	}, nil
}

func (s *Service) SendPasswordResetRequested(n auth.ResetNotification) error {
	return s.send("reset_requested", "Password Reset Request", n)
}

func (s *Service) SendPasswordResetCompleted(n auth.ResetNotification) error {
	return s.send("reset_completed", "Your Password Was Changed", n)
}

func (s *Service) send(templateName, subject string, n auth.ResetNotification) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, n); err != nil {
		return fmt.Errorf("failed to render %s template: %w", templateName, err)
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(s.config.FromName, s.config.FromAddress); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(n.Email); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	if err := s.client.DialAndSend(msg); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to send mail",
				zap.Error(err),
				zap.String("template", templateName),
				zap.Uint("user_id", n.UserID))
		}
		return fmt.Errorf("failed to send mail: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("mail sent",
			zap.String("template", templateName),
			zap.Uint("user_id", n.UserID))
	}

	return nil
}
