package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/rakunlabs/mockllm/internal/interactive"
)

// MailConfig mirrors the teacher's smtpConfig shape (email.go's NodeConfig
// "email" type): host/port/credentials/TLS policy.
type MailConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	From               string
	To                 []string
	TLS                bool
	NoTLS              bool
	InsecureSkipVerify bool
}

// Mail sends a fixed-format email summary via SMTP when an interactive
// request is queued, grounded directly on the teacher's emailNode.Run in
// internal/service/workflow/nodes/email.go.
type Mail struct {
	cfg MailConfig
}

func NewMail(cfg MailConfig) *Mail {
	return &Mail{cfg: cfg}
}

func (n *Mail) Notify(_ context.Context, ev interactive.Event) error {
	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return fmt.Errorf("notify: mail: set from: %w", err)
	}
	if err := m.To(n.cfg.To...); err != nil {
		return fmt.Errorf("notify: mail: set to: %w", err)
	}
	m.Subject("interactive request queued")
	m.SetBodyString(mail.ContentType("text/plain"), fmt.Sprintf("request id=%s model=%s queued at %s", ev.ID, ev.Model, ev.CreatedAt.Format(time.RFC3339)))

	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTimeout(10 * time.Second),
	}
	if n.cfg.Username != "" || n.cfg.Password != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(n.cfg.Username), mail.WithPassword(n.cfg.Password))
	}
	if n.cfg.NoTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	} else {
		opts = append(opts, mail.WithTLSConfig(&tls.Config{
			ServerName:         n.cfg.Host,
			InsecureSkipVerify: n.cfg.InsecureSkipVerify,
		}))
		if n.cfg.TLS {
			opts = append(opts, mail.WithSSL(), mail.WithTLSPolicy(mail.TLSMandatory))
		} else {
			opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
		}
	}

	c, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("notify: mail: create client: %w", err)
	}

	if err := c.DialAndSend(m); err != nil {
		slog.Error("notify: mail send failed", "error", err, "request_id", ev.ID)
		return err
	}
	return nil
}
