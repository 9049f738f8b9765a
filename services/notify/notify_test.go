package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/farmersheaven/backend/config"
	"github.com/farmersheaven/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testMailConfig() config.MailConfig {
	return config.MailConfig{
		Host:     "smtp.example.com",
		Port:     2525,
		From:     "noreply@farmersheaven.example",
		FromName: "Farmers Heaven",
		Enabled:  true,
	}
}

func TestNewMailer(t *testing.T) {
	cfg := testMailConfig()
	assert.IsType(t, &SMTPMailer{}, NewMailer(cfg, zap.NewNop()))

	cfg.Enabled = false
	assert.IsType(t, &LogMailer{}, NewMailer(cfg, zap.NewNop()))
}

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer(testMailConfig(), zap.NewNop())

	var sent *mail.Msg
	m.deliver = func(msg *mail.Msg) error {
		sent = msg
		return nil
	}

	err := m.Send(context.Background(), Message{
		To:      "ana@example.com",
		Subject: "Reset your password",
		Body:    "https://app.example/reset?token=abc",
	})
	require.NoError(t, err)
	require.NotNil(t, sent)

	rcpts, err := sent.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, rcpts)

	var buf bytes.Buffer
	_, err = sent.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Subject: Reset your password")
	assert.Contains(t, buf.String(), "Farmers Heaven")
	assert.Contains(t, buf.String(), "token=abc")
}

func TestSMTPMailer_Errors(t *testing.T) {
	t.Run("invalid recipient", func(t *testing.T) {
		m := NewSMTPMailer(testMailConfig(), zap.NewNop())
		m.deliver = func(*mail.Msg) error { return nil }

		err := m.Send(context.Background(), Message{To: "not an address", Subject: "x"})
		assert.True(t, services.IsValidationError(err))
	})

	t.Run("relay failure", func(t *testing.T) {
		m := NewSMTPMailer(testMailConfig(), zap.NewNop())
		m.deliver = func(*mail.Msg) error { return errors.New("connection refused") }

		err := m.Send(context.Background(), Message{To: "ana@example.com", Subject: "x"})
		assert.True(t, services.IsExternalError(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		m := NewSMTPMailer(testMailConfig(), zap.NewNop())
		called := false
		m.deliver = func(*mail.Msg) error { called = true; return nil }

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, m.Send(ctx, Message{To: "ana@example.com"}), context.Canceled)
		assert.False(t, called)
	})
}

func TestLogSenders(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	require.NoError(t, NewLogMailer(logger).Send(context.Background(), Message{To: "a@b.io", Subject: "hi"}))
	require.NoError(t, NewLogSMSSender("FRMHVN", logger).SendSMS(context.Background(), "+15550001", "123456 is your code"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "a@b.io", entries[0].ContextMap()["to"])
	assert.Equal(t, "FRMHVN", entries[1].ContextMap()["sender_id"])
}
