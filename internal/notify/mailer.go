package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Address     string
	DisplayName string
}

// Message is a plain-text email.
type Message struct {
	From    Address
	To      []Address
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

var ErrNoRecipients = errors.New("notify: message has no recipients")

const defaultSMTPPort = 25

// SMTPConfig addresses a relay. Without Username the relay is used
// unauthenticated, the way internal mail hosts are usually exposed.
type SMTPConfig struct {
	// Host is "host" or "host:port"; port 25 is assumed when omitted.
	Host     string
	Username string
	Password string
	Timeout  time.Duration
}

type sendFunc func(ctx context.Context, msgs ...*mail.Msg) error

// SMTPMailer sends through an SMTP relay, upgrading to TLS when offered.
type SMTPMailer struct {
	send sendFunc
	now  func() time.Time
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	host, port, err := splitHostPort(cfg.Host)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{send: client.DialAndSendWithContext, now: time.Now}, nil
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	msg, err := s.compose(m)
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// compose builds the MIME message; headers are encoded by go-mail.
func (s *SMTPMailer) compose(m Message) (*mail.Msg, error) {
	if len(m.To) == 0 {
		return nil, ErrNoRecipients
	}
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.From.DisplayName, m.From.Address); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	for _, a := range m.To {
		if err := msg.AddToFormat(a.DisplayName, a.Address); err != nil {
			return nil, fmt.Errorf("to address %q: %w", a.Address, err)
		}
	}
	msg.Subject(m.Subject)
	msg.SetDateWithValue(s.now())
	msg.SetBodyString(mail.TypeTextPlain, m.Body)
	return msg, nil
}

func splitHostPort(addr string) (string, int, error) {
	if addr == "" {
		return "", 0, errors.New("notify: smtp host is required")
	}
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		// No port given.
		return addr, defaultSMTPPort, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("notify: invalid smtp port %q", p)
	}
	return host, port, nil
}
