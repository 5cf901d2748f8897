package notifications

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	config "github.com/SHREYANK007/LMS-sub003/configs"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
	sendTimeout      = 10 * time.Second
)

type Message struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
}

// Mailer delivers messages. Send must not block on delivery.
type Mailer interface {
	Send(msgs ...Message)
}

// NewMailer returns a SendGrid mailer, or a mailer that only logs when no API key is set.
func NewMailer(cfg config.EmailConfig, logger *zap.Logger) Mailer {
	if cfg.SendGridAPIKey == "" || cfg.SenderEmail == "" {
		logger.Warn("Email service not configured, missing SENDGRID_API_KEY or EMAIL_SENDER")
		return &noopMailer{logger: logger}
	}
	logger.Info("Email service initialized", zap.String("sender", cfg.SenderEmail))
	return NewSendGridMailer(cfg, logger, sendGridHost)
}

type SendGridMailer struct {
	key    string
	host   string
	from   *sgmail.Email
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewSendGridMailer(cfg config.EmailConfig, logger *zap.Logger, host string) *SendGridMailer {
	return &SendGridMailer{
		key:    cfg.SendGridAPIKey,
		host:   host,
		from:   sgmail.NewEmail(cfg.SenderName, cfg.SenderEmail),
		logger: logger,
	}
}

func (s *SendGridMailer) Send(msgs ...Message) {
	for _, msg := range msgs {
		s.wg.Add(1)
		go func(msg Message) {
			defer s.wg.Done()
			if err := s.send(msg); err != nil {
				s.logger.Error("Failed to send email",
					zap.String("to", msg.ToEmail),
					zap.String("subject", msg.Subject),
					zap.Error(err),
				)
				return
			}
			s.logger.Debug("Email sent", zap.String("to", msg.ToEmail), zap.String("subject", msg.Subject))
		}(msg)
	}
}

// Wait blocks until every queued message has been handed to SendGrid.
func (s *SendGridMailer) Wait() {
	s.wg.Wait()
}

func (s *SendGridMailer) send(msg Message) error {
	if msg.ToEmail == "" || !strings.Contains(msg.ToEmail, "@") {
		return fmt.Errorf("invalid recipient email: %q", msg.ToEmail)
	}

	toName := msg.ToName
	if toName == "" {
		toName = msg.ToEmail[:strings.Index(msg.ToEmail, "@")]
	}

	m := sgmail.NewSingleEmail(s.from, msg.Subject, sgmail.NewEmail(toName, msg.ToEmail), plainText(msg.HTML), msg.HTML)

	req := sendgrid.GetRequest(s.key, sendGridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

type noopMailer struct {
	logger *zap.Logger
}

func (n *noopMailer) Send(msgs ...Message) {
	for _, msg := range msgs {
		n.logger.Info("Email client not configured, skipping email send",
			zap.String("to", msg.ToEmail),
			zap.String("subject", msg.Subject),
		)
	}
}

// plainText strips tags for the text/plain alternative.
func plainText(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
