package notify

import (
	"encoding/json"
	"fmt"

	"avtoprokat/internal/config"
	"avtoprokat/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the slice of the Telegram API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ManagerNotifier пересылает события бронирований в чаты менеджеров.
// Подписывается на шину событий и работает синхронно с публикацией.
type ManagerNotifier struct {
	bot     Sender
	chatIDs []int64
	logger  *zerolog.Logger
}

// NewFromConfig builds the notifier with a real bot client. Returns nil
// when the token is empty: notifications are optional.
func NewFromConfig(cfg config.NotifyConfig, logger *zerolog.Logger) (*ManagerNotifier, error) {
	if cfg.TelegramToken == "" || len(cfg.ManagerChatIDs) == 0 {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	bot.Debug = cfg.Debug

	return New(bot, cfg.ManagerChatIDs, logger), nil
}

func New(bot Sender, chatIDs []int64, logger *zerolog.Logger) *ManagerNotifier {
	return &ManagerNotifier{bot: bot, chatIDs: chatIDs, logger: logger}
}

// Attach subscribes the notifier to the booking and review events.
func (n *ManagerNotifier) Attach(bus *events.EventBus) {
	if n == nil || bus == nil {
		return
	}
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingCompleted,
		events.EventBookingCancelled,
		events.EventReviewCreated,
	} {
		bus.Subscribe(eventType, n.handleEvent)
	}
}

func (n *ManagerNotifier) handleEvent(event *events.Event) error {
	text := n.renderEvent(event)
	if text == "" {
		return nil
	}

	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Str("event", event.Type).Msg("Failed to notify manager")
		}
	}
	return nil
}

func (n *ManagerNotifier) renderEvent(event *events.Event) string {
	switch event.Type {
	case events.EventBookingCreated, events.EventBookingCompleted, events.EventBookingCancelled:
		var p events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			n.logger.Error().Err(err).Str("event", event.Type).Msg("Failed to decode event payload")
			return ""
		}
		action := "Новая заявка"
		switch event.Type {
		case events.EventBookingCompleted:
			action = "Аренда завершена по заявке"
		case events.EventBookingCancelled:
			action = "Заявка отменена"
		}
		return fmt.Sprintf("%s №%d\nМашина: %s\nПериод: %s - %s\nСумма: %.2f ₽",
			action, p.BookingID, p.CarName,
			p.Start.Format("02.01.2006 15:04"), p.End.Format("02.01.2006 15:04"), p.Total)
	case events.EventReviewCreated:
		var p events.ReviewEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			n.logger.Error().Err(err).Str("event", event.Type).Msg("Failed to decode event payload")
			return ""
		}
		return fmt.Sprintf("Новый отзыв по заявке №%d\nОценка: %d/5\n%s", p.BookingID, p.Rating, p.Comment)
	}
	return ""
}
