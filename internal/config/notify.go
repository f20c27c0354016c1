package config

import (
	"log/slog"

	"github.com/rakunlabs/mockllm/internal/interactive"
	"github.com/rakunlabs/mockllm/internal/interactive/notify"
)

// BuildNotifiers constructs every configured operator-paging channel.
// Construction failures are logged and the channel is skipped rather than
// failing startup over an optional side channel.
func (n Notify) BuildNotifiers() []interactive.Notifier {
	var out []interactive.Notifier

	if n.Discord != nil {
		d, err := notify.NewDiscord(n.Discord.BotToken, n.Discord.ChannelID)
		if err != nil {
			slog.Error("notify: discord setup failed, skipping", "error", err)
		} else {
			out = append(out, d)
		}
	}

	if n.Telegram != nil {
		tg, err := notify.NewTelegram(n.Telegram.BotToken, n.Telegram.ChatID)
		if err != nil {
			slog.Error("notify: telegram setup failed, skipping", "error", err)
		} else {
			out = append(out, tg)
		}
	}

	if n.Mail != nil {
		out = append(out, notify.NewMail(notify.MailConfig{
			Host:               n.Mail.Host,
			Port:               n.Mail.Port,
			Username:           n.Mail.Username,
			Password:           n.Mail.Password,
			From:               n.Mail.From,
			To:                 n.Mail.To,
			TLS:                n.Mail.TLS,
			NoTLS:              n.Mail.NoTLS,
			InsecureSkipVerify: n.Mail.InsecureSkipVerify,
		}))
	}

	return out
}
