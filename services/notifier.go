package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"gmb-scraper/config"
	"gmb-scraper/utils"
)

// Notifier delivers operator alerts. Delivery is best-effort: failures are
// logged by the implementation and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
}

// NopNotifier drops every alert.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) {}

// NewNotifier returns an SMTP notifier, or a NopNotifier when email is disabled.
func NewNotifier(cfg *config.Config, log *utils.Logger) Notifier {
	if !cfg.EmailEnabled {
		return NopNotifier{}
	}
	return &SMTPNotifier{
		host:       cfg.SMTPHost,
		port:       cfg.SMTPPort,
		sender:     cfg.EmailSender,
		password:   cfg.EmailPassword,
		recipients: cfg.Recipients,
		timeout:    30 * time.Second,
		log:        log,
	}
}

// SMTPNotifier submits plain-text mail over STARTTLS with PLAIN auth.
type SMTPNotifier struct {
	host       string
	port       int
	sender     string
	password   string
	recipients []string
	timeout    time.Duration
	log        *utils.Logger

	// send is swapped out in tests.
	send func(ctx context.Context, msg *mail.Msg) error
}

func (n *SMTPNotifier) Notify(ctx context.Context, subject, body string) {
	n.log.Info("Preparing to send alert email to: %s", strings.Join(n.recipients, ", "))

	msg, err := n.compose(subject, body)
	if err != nil {
		n.log.Error("FAILED TO SEND ALERT EMAIL: %v", err)
		return
	}

	send := n.send
	if send == nil {
		send = n.dialAndSend
	}
	if err := send(ctx, msg); err != nil {
		n.log.Error("FAILED TO SEND ALERT EMAIL: %v", err)
		return
	}
	n.log.Success("Alert email sent")
}

func (n *SMTPNotifier) compose(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.sender); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(n.recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (n *SMTPNotifier) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(n.host,
		mail.WithPort(n.port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.sender),
		mail.WithPassword(n.password),
		mail.WithTimeout(n.timeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// CaptchaAlert is the message sent when a CAPTCHA pauses the run.
func CaptchaAlert(keyword string, timeout time.Duration) (subject, body string) {
	subject = "GMB Scraper Alert: CAPTCHA - Action Required"
	body = fmt.Sprintf("Hello,\n\nThe GMB Scraper has encountered a Google CAPTCHA and is paused.\n\n"+
		"Keyword: %q\n\nPlease solve it in the browser. The script will wait for up to %s and resume automatically.",
		keyword, timeout)
	return subject, body
}

// CrashAlert is the message sent when the run dies on a fatal error.
func CrashAlert(err error, trace string) (subject, body string) {
	subject = "GMB Scraper Alert: SCRIPT CRASHED"
	body = fmt.Sprintf("The GMB Scraper script has crashed.\n\nError:\n%v\n", err)
	if trace != "" {
		body += "\nTrace:\n" + trace
	}
	return subject, body
}
