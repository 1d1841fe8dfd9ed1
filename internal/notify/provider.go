package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/smtp"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// Provider delivers one rendered email. Selection between providers is
// configuration; callers only ever see the dispatcher.
type Provider interface {
	Send(ctx context.Context, email Email) error
}

// SMTPConfig carries credentials for the SMTP provider.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type smtpProvider struct {
	cfg SMTPConfig
	// send is swappable in tests; defaults to smtp.SendMail.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPProvider returns a provider that submits via authenticated SMTP.
func NewSMTPProvider(cfg SMTPConfig) Provider {
	return &smtpProvider{cfg: cfg, send: smtp.SendMail}
}

func (p *smtpProvider) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := buildMIMEMessage(email)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)

	done := make(chan error, 1)
	go func() {
		done <- p.send(addr, auth, email.From, []string{email.To}, payload)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildMIMEMessage renders a multipart/alternative body with text and HTML parts.
func buildMIMEMessage(email Email) ([]byte, error) {
	var buffer bytes.Buffer

	var header mail.Header
	header.SetDate(time.Now())
	header.SetSubject(email.Subject)
	header.SetAddressList("From", []*mail.Address{{Name: email.FromName, Address: email.From}})
	header.SetAddressList("To", []*mail.Address{{Address: email.To}})

	writer, err := mail.CreateWriter(&buffer, header)
	if err != nil {
		return nil, err
	}

	inline, err := writer.CreateInline()
	if err != nil {
		return nil, err
	}

	var textHeader mail.InlineHeader
	textHeader.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	textPart, err := inline.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(textPart, email.TextBody); err != nil {
		return nil, err
	}
	if err := textPart.Close(); err != nil {
		return nil, err
	}

	var htmlHeader mail.InlineHeader
	htmlHeader.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	htmlPart, err := inline.CreatePart(htmlHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(htmlPart, email.HTMLBody); err != nil {
		return nil, err
	}
	if err := htmlPart.Close(); err != nil {
		return nil, err
	}

	if err := inline.Close(); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

type sesProvider struct {
	client sesiface.SESAPI
}

// NewSESProvider returns a provider backed by Amazon SES.
func NewSESProvider(region string) (Provider, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, err
	}
	return &sesProvider{client: ses.New(sess)}, nil
}

func (p *sesProvider) Send(ctx context.Context, email Email) error {
	input := &ses.SendEmailInput{
		Source:      aws.String(fmt.Sprintf("%s <%s>", email.FromName, email.From)),
		Destination: &ses.Destination{ToAddresses: []*string{aws.String(email.To)}},
		Message: &ses.Message{
			Subject: &ses.Content{Data: aws.String(email.Subject), Charset: aws.String("UTF-8")},
			Body: &ses.Body{
				Html: &ses.Content{Data: aws.String(email.HTMLBody), Charset: aws.String("UTF-8")},
				Text: &ses.Content{Data: aws.String(email.TextBody), Charset: aws.String("UTF-8")},
			},
		},
	}
	_, err := p.client.SendEmailWithContext(ctx, input)
	return err
}

type logProvider struct {
	logger *zap.Logger
}

// NewLogProvider returns a provider that records sends to the log instead of
// the network. Used when no mail backend is configured.
func NewLogProvider(logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logProvider{logger: logger}
}

func (p *logProvider) Send(_ context.Context, email Email) error {
	p.logger.Info("mail delivery skipped, log provider active",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}
