// internal/infra/telegram/client.go
package telegram

import (
	"context"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/messaging"
)

// sender is the part of *telebot.Bot the adapter needs.
type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter implements messaging.Gateway on top of gopkg.in/telebot.v3.
// Every message goes to the one configured chat.
type TelebotAdapter struct {
	bot     sender
	chat    telebot.ChatID
	limiter *rate.Limiter
}

// NewTelebotAdapter sends to chatID at no more than perSecond messages per
// second. A non-positive rate disables throttling.
func NewTelebotAdapter(b sender, chatID int64, perSecond float64) *TelebotAdapter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &TelebotAdapter{bot: b, chat: telebot.ChatID(chatID), limiter: rate.NewLimiter(limit, 1)}
}

// Send delivers text. Failures are marked messaging.ErrSendFailed.
func (a *TelebotAdapter) Send(ctx context.Context, text string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return errors.Mark(errors.Wrap(err, "waiting for send slot"), messaging.ErrSendFailed)
	}
	if _, err := a.bot.Send(a.chat, text, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
		return errors.Mark(errors.Wrapf(err, "send to chat %d", int64(a.chat)), messaging.ErrSendFailed)
	}
	return nil
}
