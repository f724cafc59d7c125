package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"

	"stars-shop-backend/internal/common/logger"
)

// Notifier sends purchase outcome messages to buyers through the shop bot.
// A Notifier built without a token is a no-op, so anonymous web purchases
// and test runs work without Telegram.
type Notifier struct {
	bot *bot.Bot
	log zerolog.Logger
}

func NewNotifier(token string) (*Notifier, error) {
	n := &Notifier{log: logger.With("telegram")}
	if token == "" {
		n.log.Warn().Msg("BOT_TOKEN is empty, buyer notifications are disabled")
		return n, nil
	}

	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	n.bot = b
	return n, nil
}

func (n *Notifier) send(ctx context.Context, chatID int64, text string) {
	if n.bot == nil || chatID == 0 {
		return
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		n.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send notification")
	}
}

func (n *Notifier) PurchaseCompleted(ctx context.Context, chatID int64, purchaseID string, amount int64, recipient string) {
	n.send(ctx, chatID, fmt.Sprintf(
		"Покупка %s на %d звезд успешно завершена! Звезды отправлены на %s.",
		purchaseID, amount, recipient,
	))
}

func (n *Notifier) PurchaseCancelled(ctx context.Context, chatID int64, purchaseID string, amount int64, reason string) {
	n.send(ctx, chatID, fmt.Sprintf(
		"Покупка %s на %d звезд отменена: %s",
		purchaseID, amount, reason,
	))
}

func (n *Notifier) PurchaseFailed(ctx context.Context, chatID int64, purchaseID string, amount int64, reason string) {
	n.send(ctx, chatID, fmt.Sprintf(
		"Покупка %s на %d звезд не удалась: %s",
		purchaseID, amount, reason,
	))
}
