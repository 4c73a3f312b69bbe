// Package textstate keeps the "who has joined" section of a rendered
// announcement in step with a toggle without re-querying the ledger.
//
// The rendered text is a cache. The participation ledger stays the source of
// truth; callers should prefer regenerating the view from the ledger and use
// Toggle only when that is not possible.
package textstate

import (
	"errors"
	"strings"
	"unicode"

	"github.com/Kerhoff/SmokeBot/internal/models"
)

// ErrInvalidLine is returned for display lines that cannot be stored in the
// joined section without corrupting it.
var ErrInvalidLine = errors.New("invalid display line")

// Layout names the markers delimiting the sections of a rendered text.
// Neither marker may contain a newline.
type Layout struct {
	// Header introduces the joined section.
	Header string
	// Trailer starts the trailing section, which is kept verbatim.
	Trailer string
}

// View is a rendered text split into its sections.
type View struct {
	Body    string
	Lines   []string
	Trailer string
}

// Parse splits text into body, joined lines and trailing section. The
// trailing section starts at the first line beginning with the trailer
// marker; the joined section starts at the first line consisting of the
// header alone. Markers elsewhere are plain content. Runs of whitespace in
// lines collapse to one space, empty lines are dropped and duplicates
// collapse in first-seen order.
func (l Layout) Parse(text string) View {
	var v View

	rest := text
	if l.Trailer != "" {
		if i := lineStart(rest, l.Trailer, false); i >= 0 {
			v.Trailer = rest[i:]
			rest = rest[:i]
		}
	}

	section := ""
	hasSection := false
	if l.Header != "" {
		if i := lineStart(rest, l.Header, true); i >= 0 {
			section = rest[i+len(l.Header):]
			rest = rest[:i]
			hasSection = true
		}
	}
	v.Body = strings.TrimRightFunc(rest, unicode.IsSpace)

	if hasSection {
		seen := make(map[string]bool)
		for _, raw := range strings.Split(section, "\n") {
			line := strings.Join(strings.Fields(raw), " ")
			if line == "" || seen[line] {
				continue
			}
			// Collapsing whitespace can move a marker to the start of the
			// line, which would split the text differently on the next parse.
			if _, err := l.NormalizeLine(line); err != nil {
				continue
			}
			seen[line] = true
			v.Lines = append(v.Lines, line)
		}
	}

	return v
}

// lineStart returns the index of the first occurrence of marker at the start
// of a line, or -1. With wholeLine the rest of that line must be blank.
func lineStart(text, marker string, wholeLine bool) int {
	for off := 0; off <= len(text); {
		i := strings.Index(text[off:], marker)
		if i < 0 {
			return -1
		}
		i += off
		off = i + 1

		if i > 0 && text[i-1] != '\n' {
			continue
		}
		if wholeLine {
			end := i + len(marker)
			tail := text[end:]
			if nl := strings.IndexByte(tail, '\n'); nl >= 0 {
				tail = tail[:nl]
			}
			if strings.TrimSpace(tail) != "" {
				continue
			}
		}
		return i
	}
	return -1
}

// Render reassembles a view. The header is omitted when there are no lines.
func (l Layout) Render(v View) string {
	var sb strings.Builder

	body := strings.TrimRightFunc(v.Body, unicode.IsSpace)
	sb.WriteString(body)

	if len(v.Lines) > 0 {
		if body != "" {
			sb.WriteString("\n\n")
		}
		sb.WriteString(l.Header)
		for _, line := range v.Lines {
			sb.WriteString("\n")
			sb.WriteString(line)
		}
	}

	if v.Trailer != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(v.Trailer)
	}

	return sb.String()
}

// NormalizeLine returns the form a display line takes inside the joined
// section.
func (l Layout) NormalizeLine(line string) (string, error) {
	line = strings.Join(strings.Fields(line), " ")
	if line == "" {
		return "", ErrInvalidLine
	}
	if l.Header != "" && strings.Contains(line, l.Header) {
		return "", ErrInvalidLine
	}
	if l.Trailer != "" && strings.Contains(line, l.Trailer) {
		return "", ErrInvalidLine
	}
	return line, nil
}

// Toggle removes line from the joined section when present and appends it
// otherwise. Body and trailing section are left alone.
func (l Layout) Toggle(text, line string) (string, models.JoinedState, error) {
	normalized, err := l.NormalizeLine(line)
	if err != nil {
		return text, "", err
	}

	state := models.StateJoined
	for _, existing := range l.Parse(text).Lines {
		if existing == normalized {
			state = models.StateLeft
			break
		}
	}

	updated, err := l.Set(text, line, state)
	return updated, state, err
}

// Set makes the joined section agree with state for line: a joined line is
// appended unless already present, a left line is removed. Body and trailing
// section are left alone.
func (l Layout) Set(text, line string, state models.JoinedState) (string, error) {
	line, err := l.NormalizeLine(line)
	if err != nil {
		return text, err
	}

	v := l.Parse(text)

	kept := v.Lines[:0:0]
	found := false
	for _, existing := range v.Lines {
		if existing == line {
			found = true
			if state == models.StateLeft {
				continue
			}
		}
		kept = append(kept, existing)
	}
	if state == models.StateJoined && !found {
		kept = append(kept, line)
	}
	v.Lines = kept

	return l.Render(v), nil
}
