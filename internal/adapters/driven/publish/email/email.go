// Package email delivers rendered digests over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/YX-UOM/Plithos/internal/adapters/driven/render"
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// Ensure Publisher implements the interface.
var _ driven.Publisher = (*Publisher)(nil)

// DefaultTimeout bounds the SMTP dial.
const DefaultTimeout = 10 * time.Second

// ErrNotConfigured is returned when delivery settings are incomplete.
var ErrNotConfigured = errors.New("email: not configured")

// Publisher sends each digest as an HTML email with a Markdown text part.
type Publisher struct {
	cfg      domain.EmailSettings
	renderer *render.Renderer
	send     func(msgs ...*gomail.Message) error
}

// New creates an SMTP publisher.
func New(cfg domain.EmailSettings, renderer *render.Renderer) (*Publisher, error) {
	if !cfg.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = domain.DefaultSMTPPort
	}

	dialer := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.Timeout = DefaultTimeout

	return &Publisher{cfg: cfg, renderer: renderer, send: dialer.DialAndSend}, nil
}

// Name returns the channel name.
func (p *Publisher) Name() string {
	return "email"
}

// Publish renders and sends the digest to every recipient.
func (p *Publisher) Publish(ctx context.Context, digest *domain.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rendered, err := p.renderer.Email(digest)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", p.cfg.From)
	m.SetHeader("To", p.cfg.To...)
	m.SetHeader("Subject", rendered.Subject)
	m.SetBody("text/plain", rendered.Text)
	m.AddAlternative("text/html", rendered.HTML)

	if err := p.send(m); err != nil {
		return fmt.Errorf("email: send to %s: %w", strings.Join(p.cfg.To, ", "), err)
	}

	logger.Info("Email sent: %s", rendered.Subject)
	return nil
}
