package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/SmokeBot/internal/service"
	"github.com/Kerhoff/SmokeBot/internal/telegram"
)

// AutoBroadcastHandler handles /smoke_auto_on and /smoke_auto_off.
type AutoBroadcastHandler struct {
	svc    *service.Service
	logger *logrus.Logger
	enable bool
}

// NewAutoOnHandler creates the /smoke_auto_on handler.
func NewAutoOnHandler(svc *service.Service, logger *logrus.Logger) *AutoBroadcastHandler {
	return &AutoBroadcastHandler{svc: svc, logger: logger, enable: true}
}

// NewAutoOffHandler creates the /smoke_auto_off handler.
func NewAutoOffHandler(svc *service.Service, logger *logrus.Logger) *AutoBroadcastHandler {
	return &AutoBroadcastHandler{svc: svc, logger: logger, enable: false}
}

func (h *AutoBroadcastHandler) Handle(bot telegram.API, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	chatID := message.Chat.ID

	var (
		changed bool
		err     error
		text    string
	)
	if h.enable {
		changed, err = h.svc.Groups.Track(ctx, chatID)
		text = "⏰ Daily smoke break call enabled for this chat."
		if !changed {
			text = "⏰ Daily smoke break call is already enabled."
		}
	} else {
		changed, err = h.svc.Groups.Untrack(ctx, chatID)
		text = "🔕 Daily smoke break call disabled for this chat."
		if !changed {
			text = "🔕 Daily smoke break call was not enabled."
		}
	}
	if err != nil {
		return fmt.Errorf("update broadcast groups: %w", err)
	}

	if err := reply(bot, message, text); err != nil {
		return fmt.Errorf("failed to send broadcast reply: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"enabled": h.enable,
		"changed": changed,
	}).Info("Broadcast setting changed")

	return nil
}

// Broadcaster sends the scheduled daily call. Scheduled calls have no
// triggering participant, so they are not recorded in the trigger log.
type Broadcaster struct {
	svc    *service.Service
	logger *logrus.Logger
	bot    telegram.API
}

// NewBroadcaster creates a new Broadcaster.
func NewBroadcaster(svc *service.Service, bot telegram.API, logger *logrus.Logger) *Broadcaster {
	return &Broadcaster{svc: svc, bot: bot, logger: logger}
}

// Broadcast sends the daily call to one chat. It matches
// service.BroadcastCallback.
func (b *Broadcaster) Broadcast(chatID int64) {
	log := b.logger.WithField("chat_id", chatID)

	subscribed, err := b.svc.ListSubscribed(context.Background())
	if err != nil {
		log.WithError(err).Error("Failed to list subscribed participants")
		return
	}
	if len(subscribed) == 0 {
		log.Debug("Nobody subscribed, skipping scheduled call")
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("⏰ Time for a smoke break!\n%s", mentions(subscribed)))
	if _, err := b.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send scheduled call")
		return
	}
	log.WithField("called", len(subscribed)).Info("Scheduled call sent")
}
