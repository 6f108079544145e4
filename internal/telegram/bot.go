// Package telegram is the chat transport: it feeds recipient requests into
// the delivery scheduler and pushes digests back out.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/sancwatch/sancwatch/internal/delivery"
)

const (
	newsButton       = "News"
	greeting         = "Press the button to get the sanctions digest.\nAvailable once per day per chat."
	collectingNotice = "Collecting the news..."
)

// Bot wraps the Telegram long-polling API.
type Bot struct {
	api       *tgbotapi.BotAPI
	scheduler *delivery.Scheduler
	log       zerolog.Logger
}

// New connects to the Telegram API with the given token.
func New(token string, scheduler *delivery.Scheduler, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	return &Bot{
		api:       api,
		scheduler: scheduler,
		log:       log.With().Str("component", "telegram").Logger(),
	}, nil
}

// Send pushes a message to one chat. Implements delivery.Sender.
func (b *Bot) Send(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// Run polls for updates until ctx is cancelled. Each digest request is
// served on its own goroutine; the blocking collector and summarizer calls
// inside never stall the update loop.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info().Str("user", b.api.Self.UserName).Msg("bot started")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.dispatch(ctx, update.Message)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.sendGreeting(msg.Chat.ID)
	case msg.Text == newsButton:
		go b.handleNewsRequest(ctx, msg.Chat.ID)
	}
}

func (b *Bot) sendGreeting(chatID int64) {
	reply := tgbotapi.NewMessage(chatID, greeting)
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(newsButton)),
	)
	keyboard.ResizeKeyboard = true
	reply.ReplyMarkup = keyboard

	if _, err := b.api.Send(reply); err != nil {
		b.log.Error().Err(err).Int64("chat", chatID).Msg("sending greeting")
	}
}

func (b *Bot) handleNewsRequest(ctx context.Context, chatID int64) {
	if err := b.Send(chatID, collectingNotice); err != nil {
		b.log.Error().Err(err).Int64("chat", chatID).Msg("sending interim notice")
	}

	reply := b.scheduler.HandleRequest(ctx, chatID)
	if err := b.Send(chatID, reply); err != nil {
		b.log.Error().Err(err).Int64("chat", chatID).Msg("sending digest")
	}
}
