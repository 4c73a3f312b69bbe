package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/SmokeBot/internal/models"
	"github.com/Kerhoff/SmokeBot/internal/service"
	"github.com/Kerhoff/SmokeBot/internal/telegram"
	"github.com/Kerhoff/SmokeBot/internal/textstate"
)

// SmokeHandler handles the /smoke command: it calls every subscribed
// participant and records the announcement in the trigger log.
type SmokeHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewSmokeHandler creates a new SmokeHandler.
func NewSmokeHandler(svc *service.Service, logger *logrus.Logger) *SmokeHandler {
	return &SmokeHandler{svc: svc, logger: logger}
}

// Handle processes the /smoke command.
func (h *SmokeHandler) Handle(bot telegram.API, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	chatID := message.Chat.ID
	caller := message.From

	if err := h.svc.CaptureParticipant(ctx, caller.ID, senderName(caller)); err != nil {
		return fmt.Errorf("capture caller: %w", err)
	}
	h.captureAdmins(ctx, bot, chatID)

	subscribed, err := h.svc.ListSubscribed(ctx)
	if err != nil {
		return fmt.Errorf("list subscribed: %w", err)
	}

	called := make([]*models.Participant, 0, len(subscribed))
	for _, p := range subscribed {
		if p.ID != caller.ID {
			called = append(called, p)
		}
	}

	if len(called) == 0 {
		msg := tgbotapi.NewMessage(chatID, "🤷 Nobody to call. Others can subscribe with /smoke_join.")
		msg.ReplyToMessageID = message.MessageID
		_, err := bot.Send(msg)
		return err
	}

	event, err := h.svc.RecordTrigger(ctx, chatID, caller.ID)
	if err != nil {
		return fmt.Errorf("record trigger: %w", err)
	}

	trailer, err := statsTrailer(ctx, h.svc, chatID)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to render announcement stats")
		trailer = ""
	}

	text := announcementLayout.Render(textstate.View{
		Body:    fmt.Sprintf("🚬 %s calls a smoke break!\n%s", safeName(senderName(caller)), mentions(called)),
		Trailer: trailer,
	})

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = toggleKeyboard()
	sent, err := bot.Send(msg)
	if err != nil {
		return fmt.Errorf("send announcement: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":    chatID,
		"user_id":    caller.ID,
		"trigger_id": event.ID,
		"message_id": sent.MessageID,
		"called":     len(called),
	}).Info("Announcement sent")

	return nil
}

// captureAdmins adds the chat's human administrators to the roster. Failures
// are logged and do not stop the announcement.
func (h *SmokeHandler) captureAdmins(ctx context.Context, bot telegram.API, chatID int64) {
	admins, err := bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to fetch chat administrators")
		return
	}

	for _, admin := range admins {
		if admin.User == nil || admin.User.IsBot {
			continue
		}
		if err := h.svc.CaptureParticipant(ctx, admin.User.ID, senderName(admin.User)); err != nil {
			h.logger.WithError(err).WithField("user_id", admin.User.ID).Warn("Failed to capture administrator")
		}
	}
}

// ToggleHandler handles presses of the announcement's join button. The
// announcement's message id identifies the event instance.
type ToggleHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewToggleHandler creates a new ToggleHandler.
func NewToggleHandler(svc *service.Service, logger *logrus.Logger) *ToggleHandler {
	return &ToggleHandler{svc: svc, logger: logger}
}

// HandleCallback processes a join button press.
func (h *ToggleHandler) HandleCallback(bot telegram.API, query *tgbotapi.CallbackQuery, args []string) error {
	if query.Message == nil || query.Message.Chat == nil {
		_, err := bot.Request(tgbotapi.NewCallback(query.ID, "This announcement is no longer available"))
		return err
	}

	ctx := context.Background()
	chatID := query.Message.Chat.ID
	eventID := int64(query.Message.MessageID)
	user := query.From

	if err := h.svc.CaptureParticipant(ctx, user.ID, senderName(user)); err != nil {
		return fmt.Errorf("capture participant: %w", err)
	}

	state, err := h.svc.Toggle(ctx, user.ID, chatID, eventID)
	if err != nil {
		return fmt.Errorf("toggle participation: %w", err)
	}

	answer := "✅ You're in"
	if state == models.StateLeft {
		answer = "👋 You're out"
	}
	if _, err := bot.Request(tgbotapi.NewCallback(query.ID, answer)); err != nil {
		h.logger.WithError(err).Warn("Failed to answer callback query")
	}

	text := h.refresh(ctx, query.Message.Text, chatID, eventID, senderName(user), state)
	if text == query.Message.Text {
		return nil
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, query.Message.MessageID, text, toggleKeyboard())
	if _, err := bot.Send(edit); err != nil {
		return fmt.Errorf("edit announcement: %w", err)
	}
	return nil
}

// refresh rebuilds the joined section from the ledger. When the ledger
// cannot be read it patches the previous text so the user's line matches
// the state the ledger returned.
func (h *ToggleHandler) refresh(ctx context.Context, previous string, chatID, eventID int64, name string, state models.JoinedState) string {
	participants, err := h.svc.ListParticipants(ctx, chatID, eventID)
	if err == nil {
		view := announcementLayout.Parse(previous)
		view.Lines = joinedLines(participants)
		if trailer, err := statsTrailer(ctx, h.svc, chatID); err == nil && view.Trailer != "" {
			view.Trailer = trailer
		}
		return announcementLayout.Render(view)
	}

	h.logger.WithError(err).WithFields(logrus.Fields{
		"chat_id":  chatID,
		"event_id": eventID,
	}).Warn("Failed to list participants, patching announcement text")

	patched, err := announcementLayout.Set(previous, safeName(name), state)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to patch announcement text")
		return previous
	}
	return patched
}
