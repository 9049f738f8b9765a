package notify

import (
	"context"
	"fmt"

	"github.com/farmersheaven/backend/config"
	"github.com/farmersheaven/backend/services"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Message is an outgoing e-mail
type Message struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

// Mailer delivers e-mail
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMSSender delivers text messages to a mobile number
type SMSSender interface {
	SendSMS(ctx context.Context, mobile, text string) error
}

// NewMailer returns an SMTP mailer when mail is enabled, otherwise a mailer that only logs
func NewMailer(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if !cfg.Enabled {
		return &LogMailer{logger: logger}
	}
	return NewSMTPMailer(cfg, logger)
}

// SMTPMailer sends mail through an SMTP relay
type SMTPMailer struct {
	cfg    config.MailConfig
	logger *zap.Logger

	// deliver hands a composed message to the relay; replaced in tests
	deliver func(msg *mail.Msg) error
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg, logger: logger}
	m.deliver = m.dialAndSend
	return m
}

// Send composes and delivers a message
func (m *SMTPMailer) Send(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := m.compose(message)
	if err != nil {
		return services.WrapError(services.ErrorTypeValidation, "invalid mail address", err)
	}

	m.logger.Info("sending mail",
		zap.String("to", message.To),
		zap.String("subject", message.Subject))

	if err := m.deliver(msg); err != nil {
		m.logger.Error("mail delivery failed",
			zap.String("to", message.To),
			zap.Error(err))
		return services.WrapExternal(services.ErrMailDelivery.Message, err)
	}
	return nil
}

func (m *SMTPMailer) compose(message Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	msg.Subject(message.Subject)

	var err error
	if m.cfg.FromName != "" {
		err = msg.FromFormat(m.cfg.FromName, m.cfg.From)
	} else {
		err = msg.From(m.cfg.From)
	}
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}

	contentType := mail.TypeTextPlain
	if message.HTML {
		contentType = mail.TypeTextHTML
	}
	msg.SetBodyString(contentType, message.Body)
	msg.SetCharset(mail.CharsetUTF8)
	return msg, nil
}

func (m *SMTPMailer) dialAndSend(msg *mail.Msg) error {
	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.SendTimeout > 0 {
		opts = append(opts, mail.WithTimeout(m.cfg.SendTimeout))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
			mail.WithSMTPAuth(mail.SMTPAuthPlain))
	}
	if m.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	c, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return c.DialAndSend(msg)
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message
func (m *LogMailer) Send(ctx context.Context, message Message) error {
	m.logger.Info("mail delivery disabled, message not sent",
		zap.String("to", message.To),
		zap.String("subject", message.Subject),
		zap.Int("body_length", len(message.Body)))
	return nil
}

// LogSMSSender writes text messages to the log. No SMS gateway is wired.
type LogSMSSender struct {
	senderID string
	logger   *zap.Logger
}

// NewLogSMSSender creates a new LogSMSSender
func NewLogSMSSender(senderID string, logger *zap.Logger) *LogSMSSender {
	return &LogSMSSender{senderID: senderID, logger: logger}
}

// SendSMS logs the message
func (s *LogSMSSender) SendSMS(ctx context.Context, mobile, text string) error {
	s.logger.Info("sms",
		zap.String("sender_id", s.senderID),
		zap.String("mobile", mobile),
		zap.Int("length", len(text)))
	return nil
}
