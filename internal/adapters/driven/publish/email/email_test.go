package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"

	"github.com/YX-UOM/Plithos/internal/adapters/driven/render"
	"github.com/YX-UOM/Plithos/internal/core/domain"
)

func testSettings() domain.EmailSettings {
	return domain.EmailSettings{
		Enabled:    true,
		SMTPServer: "smtp.example.com",
		From:       "digest@example.com",
		To:         []string{"a@example.com", "b@example.com"},
	}
}

func testDigest(t *testing.T) *domain.Digest {
	t.Helper()
	week, err := domain.ParseDay("2026-01-08")
	require.NoError(t, err)
	d := domain.NewEmptyDigest(week, 3)
	d.ItemsIncluded = 1
	d.TopStories = []domain.DigestItem{{
		Title: "CRREM pathways updated", URL: "https://crrem.example.eu", Source: "CRREM",
		Theme: domain.ThemeClimateRisk, Importance: domain.ImportanceHigh,
	}}
	d.ByTheme = map[domain.Theme]domain.ThemeSummary{domain.ThemeClimateRisk: {Count: 1}}
	return d
}

func TestNew_NotConfigured(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*domain.EmailSettings)
	}{
		{name: "disabled", modify: func(s *domain.EmailSettings) { s.Enabled = false }},
		{name: "no server", modify: func(s *domain.EmailSettings) { s.SMTPServer = "" }},
		{name: "no sender", modify: func(s *domain.EmailSettings) { s.From = "" }},
		{name: "no recipients", modify: func(s *domain.EmailSettings) { s.To = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSettings()
			tt.modify(&cfg)

			p, err := New(cfg, render.New(domain.DefaultFramework()))

			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrNotConfigured)
		})
	}
}

func TestNew_DefaultPort(t *testing.T) {
	p, err := New(testSettings(), render.New(domain.DefaultFramework()))

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSMTPPort, p.cfg.SMTPPort)
	assert.Equal(t, "email", p.Name())
}

func TestPublisher_Publish(t *testing.T) {
	p, err := New(testSettings(), render.New(domain.DefaultFramework()))
	require.NoError(t, err)

	var sent []*gomail.Message
	p.send = func(msgs ...*gomail.Message) error {
		sent = append(sent, msgs...)
		return nil
	}

	require.NoError(t, p.Publish(context.Background(), testDigest(t)))

	require.Len(t, sent, 1)
	m := sent[0]
	assert.Equal(t, []string{"digest@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{render.Subject(testDigest(t))}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/plain")
	assert.Contains(t, buf.String(), "text/html")
}

func TestPublisher_Publish_SendError(t *testing.T) {
	p, err := New(testSettings(), render.New(domain.DefaultFramework()))
	require.NoError(t, err)
	boom := errors.New("connection refused")
	p.send = func(...*gomail.Message) error { return boom }

	err = p.Publish(context.Background(), testDigest(t))

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a@example.com, b@example.com")
}

func TestPublisher_Publish_Cancelled(t *testing.T) {
	p, err := New(testSettings(), render.New(domain.DefaultFramework()))
	require.NoError(t, err)
	called := false
	p.send = func(...*gomail.Message) error {
		called = true
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = p.Publish(ctx, testDigest(t))

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
