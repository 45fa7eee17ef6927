package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Telegram mirrors watchlist messages to a chat. Send-only: the pipeline is
// batch-triggered, so there is no command loop to run.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates the mirror channel.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	log.Info().Str("bot", api.Self.UserName).Msg("Telegram mirror enabled")
	return &Telegram{api: api, chatID: chatID}, nil
}

// Send delivers one message to the configured chat.
func (t *Telegram) Send(content string) error {
	msg := tgbotapi.NewMessage(t.chatID, content)
	msg.ParseMode = tgbotapi.ModeMarkdown // content is already code-fenced
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}
