package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/SmokeBot/internal/service"
	"github.com/Kerhoff/SmokeBot/internal/telegram"
)

// SightingObserver adds the sender of every group message to the roster.
type SightingObserver struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewSightingObserver creates a new SightingObserver.
func NewSightingObserver(svc *service.Service, logger *logrus.Logger) *SightingObserver {
	return &SightingObserver{svc: svc, logger: logger}
}

// Observe records a sighting of the message sender.
func (o *SightingObserver) Observe(_ telegram.API, message *tgbotapi.Message) {
	if message.From == nil || message.From.IsBot {
		return
	}
	if !message.Chat.IsGroup() && !message.Chat.IsSuperGroup() {
		return
	}

	if err := o.svc.CaptureParticipant(context.Background(), message.From.ID, senderName(message.From)); err != nil {
		o.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": message.Chat.ID,
			"user_id": message.From.ID,
		}).Error("Failed to capture participant")
	}
}

// SubscriptionHandler handles /smoke_join and /smoke_leave.
type SubscriptionHandler struct {
	svc       *service.Service
	logger    *logrus.Logger
	subscribe bool
}

// NewJoinHandler creates the /smoke_join handler.
func NewJoinHandler(svc *service.Service, logger *logrus.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, logger: logger, subscribe: true}
}

// NewLeaveHandler creates the /smoke_leave handler.
func NewLeaveHandler(svc *service.Service, logger *logrus.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, logger: logger, subscribe: false}
}

// Handle sets the caller's subscription flag.
func (h *SubscriptionHandler) Handle(bot telegram.API, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	user := message.From

	if err := h.svc.CaptureParticipant(ctx, user.ID, senderName(user)); err != nil {
		return fmt.Errorf("capture participant: %w", err)
	}
	if _, err := h.svc.SetSubscription(ctx, user.ID, h.subscribe); err != nil {
		return fmt.Errorf("set subscription: %w", err)
	}

	text := "👋 You will no longer be called to smoke breaks. Use /smoke_join to come back."
	if h.subscribe {
		text = "✅ You will be called to smoke breaks. Use /smoke_leave to opt out."
	}
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send subscription reply: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":    message.Chat.ID,
		"user_id":    user.ID,
		"subscribed": h.subscribe,
	}).Info("Subscription changed")

	return nil
}
