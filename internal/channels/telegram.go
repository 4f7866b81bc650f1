// Package channels bridges external chat surfaces onto the dispatcher.
package channels

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tsaristov/boop-final-prototype/internal/intent"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
)

// TelegramBridge relays Telegram messages through the dispatcher and
// sends replies back to the originating chat.
type TelegramBridge struct {
	bot        *tgbotapi.BotAPI
	dispatcher *intent.Dispatcher
}

func NewTelegramBridge(token string, dispatcher *intent.Dispatcher) (*TelegramBridge, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	logging.Channel("telegram connected as @%s", bot.Self.UserName)
	return &TelegramBridge{bot: bot, dispatcher: dispatcher}, nil
}

// Run consumes updates until the context is cancelled.
func (t *TelegramBridge) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			t.handle(ctx, update.Message)
		}
	}
}

func (t *TelegramBridge) handle(ctx context.Context, msg *tgbotapi.Message) {
	userID := "tg:" + strconv.FormatInt(msg.From.ID, 10)
	reply := t.dispatcher.HandleMessage(ctx, userID, msg.Text)

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ReplyToMessageID = msg.MessageID
	if _, err := t.bot.Send(out); err != nil {
		logging.Channel("failed to send telegram reply: %v", err)
	}
}
