package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/SmokeBot/internal/models"
	"github.com/Kerhoff/SmokeBot/internal/service"
	"github.com/Kerhoff/SmokeBot/internal/textstate"
)

// ToggleAction is the callback action of the announcement's join button.
const ToggleAction = "smoke_toggle"

// announcementLayout delimits the joined section of an announcement.
var announcementLayout = textstate.Layout{
	Header:  "👥 Joined:",
	Trailer: "📊 Smoke breaks",
}

func toggleKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🙋 I'm in / I'm out", ToggleAction),
		),
	)
}

// senderName is the roster display name of a Telegram user.
func senderName(u *tgbotapi.User) string {
	if u == nil {
		return models.UnknownName
	}
	return models.DisplayNameFor(u.UserName, u.FirstName, u.LastName)
}

// safeName strips layout markers from a display name so it cannot split an
// announcement when the text is parsed again.
func safeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	for _, marker := range []string{announcementLayout.Header, announcementLayout.Trailer} {
		for strings.Contains(name, marker) {
			name = strings.Join(strings.Fields(strings.ReplaceAll(name, marker, " ")), " ")
		}
	}
	if name == "" {
		return models.UnknownName
	}
	return name
}

func mentions(participants []*models.Participant) string {
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, safeName(p.DisplayName))
	}
	return strings.Join(names, " ")
}

// statsTrailer renders the counters shown under an announcement.
func statsTrailer(ctx context.Context, svc *service.Service, chatID int64) (string, error) {
	today, err := svc.CountInWindow(ctx, chatID, models.WindowToday)
	if err != nil {
		return "", err
	}
	week, err := svc.CountInWindow(ctx, chatID, models.WindowWeek)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s today: %d, %s: %d",
		announcementLayout.Trailer, today, models.WindowWeek.Label(), week), nil
}

func joinedLines(participants []*models.Participant) []string {
	lines := make([]string, 0, len(participants))
	for _, p := range participants {
		line, err := announcementLayout.NormalizeLine(safeName(p.DisplayName))
		if err != nil {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
