// Package mail delivers notification emails over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends through an SMTP relay. Transient failures are retried with
// exponential backoff; repeated failures open a circuit breaker so a dead
// relay does not stall the mailer on every tick.
type SMTPSender struct {
	addr     string
	auth     smtp.Auth
	from     string
	send     sendFunc
	breaker  *gobreaker.CircuitBreaker
	attempts int
	backoff  time.Duration
}

type Option func(*SMTPSender)

// WithRetry overrides the number of attempts and the initial backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *SMTPSender) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if backoff > 0 {
			s.backoff = backoff
		}
	}
}

func withSendFunc(fn sendFunc) Option {
	return func(s *SMTPSender) { s.send = fn }
}

func NewSMTPSender(cfg Config, opts ...Option) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	s := &SMTPSender{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:     auth,
		from:     cfg.From,
		send:     smtp.SendMail,
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "smtp",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
		},
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State exposes the breaker state for health reporting.
func (s *SMTPSender) State() gobreaker.State {
	return s.breaker.State()
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("mail: recipient required")
	}
	payload := s.build(msg)

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.sendWithRetry(ctx, msg.To, payload)
	})
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) sendWithRetry(ctx context.Context, to string, payload []byte) error {
	backoff := s.backoff
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err = s.send(s.addr, s.auth, s.from, []string{to}, payload)
		if err == nil {
			return nil
		}
		if permanent(err) || attempt == s.attempts {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// permanent reports SMTP 5xx replies, which retrying will not fix.
func permanent(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && protoErr.Code >= 500
}

func (s *SMTPSender) build(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
