package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/SmokeBot/internal/telegram"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(bot telegram.API, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *SmokeBot Help*

*Smoke breaks:*
• /smoke - Call everyone who opted in
• /smoke\_join - Get called to smoke breaks
• /smoke\_leave - Stop being called

*Statistics:*
• /smoke\_stats - Smoke breaks per period
• /smoke\_top [period] - Who joined the most
• /smoke\_history [period] - Recent smoke breaks

*Daily call:*
• /smoke\_auto\_on - Call everyone daily
• /smoke\_auto\_off - Stop the daily call

_Periods: today, week, month, all_`

	msg := tgbotapi.NewMessage(message.Chat.ID, helpText)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := bot.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Info("Sent help message")

	return nil
}
