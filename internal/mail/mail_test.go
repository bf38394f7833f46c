package mail

import (
	"context"
	"errors"
	"net/smtp"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSend struct {
	mu    sync.Mutex
	calls int
	errs  []error
	last  []byte
}

func (r *recordingSend) fn(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = msg
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return err
	}
	return nil
}

func newTestSender(rec *recordingSend) *SMTPSender {
	return NewSMTPSender(Config{Host: "smtp.local", Port: 25, From: "tickets@example.com"},
		withSendFunc(rec.fn), WithRetry(3, time.Millisecond))
}

func TestSend_BuildsMessage(t *testing.T) {
	t.Parallel()

	rec := &recordingSend{}
	s := newTestSender(rec)

	err := s.Send(context.Background(), Message{To: "buyer@example.com", Subject: "Your\r\ntickets", Body: "line1\nline2"})
	require.NoError(t, err)

	body := string(rec.last)
	assert.Contains(t, body, "To: buyer@example.com\r\n")
	assert.Contains(t, body, "Subject: Your  tickets\r\n")
	assert.Contains(t, body, "line1\r\nline2")
}

func TestSend_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	rec := &recordingSend{errs: []error{errors.New("connection reset"), errors.New("timeout")}}
	s := newTestSender(rec)

	require.NoError(t, s.Send(context.Background(), Message{To: "a@example.com"}))
	assert.Equal(t, 3, rec.calls)
}

func TestSend_DoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()

	rec := &recordingSend{errs: []error{&textproto.Error{Code: 550, Msg: "mailbox unavailable"}}}
	s := newTestSender(rec)

	err := s.Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Equal(t, 1, rec.calls)
}

func TestSend_RequiresRecipient(t *testing.T) {
	t.Parallel()

	s := newTestSender(&recordingSend{})
	require.Error(t, s.Send(context.Background(), Message{}))
}

func TestSend_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	perm := &textproto.Error{Code: 554, Msg: "rejected"}
	rec := &recordingSend{errs: []error{perm, perm, perm, perm, perm}}
	s := newTestSender(rec)

	for range 5 {
		_ = s.Send(context.Background(), Message{To: "a@example.com"})
	}
	assert.Equal(t, gobreaker.StateOpen, s.State())

	err := s.Send(context.Background(), Message{To: "a@example.com"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, rec.calls)
}
