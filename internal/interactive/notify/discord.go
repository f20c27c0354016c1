// Package notify implements the optional operator-paging side channels for
// the interactive broker's `queued` event: Discord, Telegram, and email.
// Each is a thin adapter over a real third-party client library the
// teacher's go.mod already carries; none affects the broker's reply/timeout
// semantics (spec.md §4.5 already fully governs that), they only page a
// human who isn't watching the SSE stream.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/rakunlabs/mockllm/internal/interactive"
)

// Discord posts a channel message via a bot token when an interactive
// request is queued.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscord opens a Discord session with botToken (no gateway connection
// is established; only the REST client is needed to post a message).
func NewDiscord(botToken, channelID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("notify: discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID}, nil
}

func (d *Discord) Notify(_ context.Context, ev interactive.Event) error {
	content := fmt.Sprintf("interactive request queued: id=%s model=%s", ev.ID, ev.Model)
	if _, err := d.session.ChannelMessageSend(d.channelID, content); err != nil {
		slog.Error("notify: discord send failed", "error", err, "request_id", ev.ID)
		return err
	}
	return nil
}
