// Package notify dispatches best-effort booking notifications to the shop
// operator. Delivery failures never affect the committed booking.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/tyhsiao/bookline/internal/model"
)

// TelegramNotifier pushes a booking summary to the operator chat.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) BookingConfirmed(ctx context.Context, b *model.BookingRecord) error {
	text := fmt.Sprintf(
		"New booking\n%s %s\n%s %s\nPhone: %s",
		b.Date, b.Time, b.Name, strings.Join(b.Services, "、"), b.Phone,
	)
	if b.Remarks != "" {
		text += "\nRemarks: " + b.Remarks
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram notification: %w", err)
	}

	n.logger.Debug("Booking notification sent", zap.String("booking_id", b.ID))
	return nil
}

// Nop drops notifications; used when no transport is configured.
type Nop struct{}

func (Nop) BookingConfirmed(context.Context, *model.BookingRecord) error { return nil }
