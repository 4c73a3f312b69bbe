package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/SmokeBot/internal/models"
	"github.com/Kerhoff/SmokeBot/internal/service"
	"github.com/Kerhoff/SmokeBot/internal/telegram"
)

// windowArg resolves the optional window argument of a command.
func windowArg(args []string) models.Window {
	if len(args) == 0 {
		return models.DefaultWindow
	}
	w, _ := models.ParseWindow(args[0])
	return w
}

func reply(bot telegram.API, message *tgbotapi.Message, text string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	_, err := bot.Send(msg)
	return err
}

// StatsHandler handles /smoke_stats.
type StatsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewStatsHandler(svc *service.Service, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger}
}

func (h *StatsHandler) Handle(bot telegram.API, message *tgbotapi.Message, args []string) error {
	stats, err := h.svc.Stats(context.Background(), message.Chat.ID)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("📊 Smoke breaks called\n")
	for _, s := range stats {
		fmt.Fprintf(&sb, "\n• %s: %d", s.Label, s.Count)
	}

	if err := reply(bot, message, sb.String()); err != nil {
		return fmt.Errorf("failed to send stats: %w", err)
	}
	return nil
}

// TopHandler handles /smoke_top [window].
type TopHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewTopHandler(svc *service.Service, logger *logrus.Logger) *TopHandler {
	return &TopHandler{svc: svc, logger: logger}
}

func (h *TopHandler) Handle(bot telegram.API, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	chatID := message.Chat.ID
	window := windowArg(args)

	entries, err := h.svc.Leaderboard(ctx, chatID, window, service.DefaultLeaderboardLimit)
	if err != nil {
		return fmt.Errorf("get leaderboard: %w", err)
	}
	if len(entries) == 0 {
		return reply(bot, message, fmt.Sprintf("🏆 Nobody joined a smoke break (%s).", window.Label()))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 Top smokers (%s)\n", window.Label())
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n%d. %s: %d", e.Rank, e.DisplayName, e.Count)
	}

	top, err := h.svc.TopSingle(ctx, chatID, window)
	if err != nil {
		return fmt.Errorf("get top participant: %w", err)
	}
	if top != nil {
		fmt.Fprintf(&sb, "\n\n👑 %s leads with %d", top.DisplayName, top.Count)
	}

	if err := reply(bot, message, sb.String()); err != nil {
		return fmt.Errorf("failed to send leaderboard: %w", err)
	}
	return nil
}

// HistoryHandler handles /smoke_history [window].
type HistoryHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewHistoryHandler(svc *service.Service, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, logger: logger}
}

func (h *HistoryHandler) Handle(bot telegram.API, message *tgbotapi.Message, args []string) error {
	window := windowArg(args)

	history, err := h.svc.History(context.Background(), message.Chat.ID, window, service.DefaultHistoryLimit)
	if err != nil {
		return fmt.Errorf("get history: %w", err)
	}
	if len(history) == 0 {
		return reply(bot, message, fmt.Sprintf("🕰 No smoke breaks (%s).", window.Label()))
	}

	loc := h.svc.Location()
	var sb strings.Builder
	fmt.Fprintf(&sb, "🕰 Smoke breaks (%s)\n", window.Label())
	for _, e := range history {
		fmt.Fprintf(&sb, "\n%s %s", e.CreatedAt.In(loc).Format("02.01 15:04"), e.DisplayName)
	}

	if err := reply(bot, message, sb.String()); err != nil {
		return fmt.Errorf("failed to send history: %w", err)
	}
	return nil
}
