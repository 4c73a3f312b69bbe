package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Router handles message routing and command parsing
type Router struct {
	logger    *logrus.Logger
	handlers  map[string]CommandHandler
	callbacks map[string]CallbackHandler
	observers []MessageObserver
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(bot API, message *tgbotapi.Message, args []string) error
}

// CallbackHandler handles inline keyboard presses. The callback data is
// "<action>" or "<action>:<arg>:<arg>..."; args holds the part after the
// action.
type CallbackHandler interface {
	HandleCallback(bot API, query *tgbotapi.CallbackQuery, args []string) error
}

// MessageObserver sees every inbound message before command dispatch.
type MessageObserver interface {
	Observe(bot API, message *tgbotapi.Message)
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{
		logger:    logger,
		handlers:  make(map[string]CommandHandler),
		callbacks: make(map[string]CallbackHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// RegisterCallback registers a handler for an inline keyboard action
func (r *Router) RegisterCallback(action string, handler CallbackHandler) {
	r.callbacks[action] = handler
	r.logger.Debugf("Registered callback: %s", action)
}

// RegisterObserver adds an observer called for every message
func (r *Router) RegisterObserver(observer MessageObserver) {
	r.observers = append(r.observers, observer)
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(bot API, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}

	log := r.logger.WithFields(logrus.Fields{
		"trace_id":   uuid.NewString(),
		"chat_id":    message.Chat.ID,
		"user_id":    message.From.ID,
		"username":   message.From.UserName,
		"message_id": message.MessageID,
	})
	log.Debug("Received message")

	for _, o := range r.observers {
		o.Observe(bot, message)
	}

	if message.Text == "" || !message.IsCommand() {
		return
	}

	command := message.Command()
	args := strings.Fields(message.CommandArguments())
	log = log.WithField("command", command)

	handler, exists := r.handlers[command]
	if !exists {
		log.Warn("Unknown command")
		unknownMsg := tgbotapi.NewMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands.")
		if _, err := bot.Send(unknownMsg); err != nil {
			log.WithError(err).Error("Failed to send unknown command reply")
		}
		return
	}

	if err := handler.Handle(bot, message, args); err != nil {
		log.WithError(err).Error("Command handler failed")

		errorMsg := tgbotapi.NewMessage(message.Chat.ID, "❌ An error occurred while processing your command. Please try again.")
		if _, err := bot.Send(errorMsg); err != nil {
			log.WithError(err).Error("Failed to send error reply")
		}
		return
	}

	log.Info("Command handled")
}

// HandleCallbackQuery handles callback queries from inline keyboards
func (r *Router) HandleCallbackQuery(bot API, callbackQuery *tgbotapi.CallbackQuery) {
	parts := strings.Split(callbackQuery.Data, ":")
	action, args := parts[0], parts[1:]

	log := r.logger.WithFields(logrus.Fields{
		"trace_id":    uuid.NewString(),
		"callback_id": callbackQuery.ID,
		"user_id":     callbackQuery.From.ID,
		"action":      action,
	})
	log.Debug("Received callback query")

	handler, exists := r.callbacks[action]
	if !exists {
		log.Warn("Unknown callback action")
		// Answer the callback query to remove loading state
		if _, err := bot.Request(tgbotapi.NewCallback(callbackQuery.ID, "")); err != nil {
			log.WithError(err).Error("Failed to answer callback query")
		}
		return
	}

	if err := handler.HandleCallback(bot, callbackQuery, args); err != nil {
		log.WithError(err).Error("Callback handler failed")
		if _, err := bot.Request(tgbotapi.NewCallback(callbackQuery.ID, "❌ Something went wrong")); err != nil {
			log.WithError(err).Error("Failed to answer callback query")
		}
	}
}
