package notify

import (
	"context"
	"net/http"
	"time"
)

// Discord embed limits.
const (
	discordTitleMax = 256
	discordBodyMax  = 4096
	discordRed      = 0xE74C3C
)

// DiscordSender delivers alerts as embeds through a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

// Send posts one red embed. Discord answers 204 on success.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	return postJSON(ctx, d.client, d.Name(), d.webhookURL, discordPayload{
		Username: "bankdesk",
		Embeds: []discordEmbed{{
			Title:       truncate(title, discordTitleMax),
			Description: truncate(message, discordBodyMax),
			Color:       discordRed,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	})
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}
