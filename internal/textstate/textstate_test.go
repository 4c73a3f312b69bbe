package textstate

import (
	"errors"
	"strings"
	"testing"

	"github.com/Kerhoff/SmokeBot/internal/models"
)

var layout = Layout{Header: "Joined:", Trailer: "-- stats --"}

func TestToggleJoinAppendsInInsertionOrder(t *testing.T) {
	text := "Smoke break!\n@bob @carol"

	text, state, err := layout.Toggle(text, "Carol")
	if err != nil || state != models.StateJoined {
		t.Fatalf("expected join, got %q, %v", state, err)
	}
	text, state, err = layout.Toggle(text, "Alice")
	if err != nil || state != models.StateJoined {
		t.Fatalf("expected join, got %q, %v", state, err)
	}

	want := "Smoke break!\n@bob @carol\n\nJoined:\nCarol\nAlice"
	if text != want {
		t.Fatalf("unexpected text:\n%q\nwant:\n%q", text, want)
	}
}

func TestToggleLeaveRemovesLineAndEmptyHeader(t *testing.T) {
	text := "Smoke break!\n\nJoined:\nCarol\n\n-- stats --\ntoday: 3"

	got, state, err := layout.Toggle(text, "  Carol ")
	if err != nil || state != models.StateLeft {
		t.Fatalf("expected leave, got %q, %v", state, err)
	}

	want := "Smoke break!\n\n-- stats --\ntoday: 3"
	if got != want {
		t.Fatalf("unexpected text:\n%q\nwant:\n%q", got, want)
	}
}

func TestTogglePreservesTrailerVerbatim(t *testing.T) {
	trailer := "-- stats --\n  today: 3  \n\nweek: 10\nJoined:\nnot a participant"
	text := "Body\n\nJoined:\nBob\n\n" + trailer

	got, _, err := layout.Toggle(text, "Alice")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !strings.HasSuffix(got, trailer) {
		t.Fatalf("expected trailer kept verbatim, got %q", got)
	}

	v := layout.Parse(got)
	if len(v.Lines) != 2 || v.Lines[0] != "Bob" || v.Lines[1] != "Alice" {
		t.Fatalf("unexpected lines %q", v.Lines)
	}
}

func TestParseToleratesForeignEdits(t *testing.T) {
	text := "Body\nJoined:\n\n   Bob  \n\nBob\n  Carol   Jones\n"

	v := layout.Parse(text)
	if v.Body != "Body" {
		t.Fatalf("unexpected body %q", v.Body)
	}
	if len(v.Lines) != 2 || v.Lines[0] != "Bob" || v.Lines[1] != "Carol Jones" {
		t.Fatalf("unexpected lines %q", v.Lines)
	}

	got, state, err := layout.Toggle(text, "Carol Jones")
	if err != nil || state != models.StateLeft {
		t.Fatalf("expected leave, got %q, %v", state, err)
	}
	if got != "Body\n\nJoined:\nBob" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestToggleWithoutBody(t *testing.T) {
	got, _, err := layout.Toggle("", "Alice")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got != "Joined:\nAlice" {
		t.Fatalf("unexpected text %q", got)
	}

	got, _, err = layout.Toggle(got, "Alice")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestToggleRejectsUnsafeLines(t *testing.T) {
	for _, line := range []string{"", "   ", "x Joined: y", "-- stats -- me"} {
		got, _, err := layout.Toggle("Body", line)
		if !errors.Is(err, ErrInvalidLine) {
			t.Fatalf("line %q: expected ErrInvalidLine, got %v", line, err)
		}
		if got != "Body" {
			t.Fatalf("line %q: expected text unchanged, got %q", line, got)
		}
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	v := View{Body: "Body", Lines: []string{"A", "B"}, Trailer: "-- stats --\nx"}
	got := layout.Parse(layout.Render(v))
	if got.Body != v.Body || got.Trailer != v.Trailer || strings.Join(got.Lines, ",") != "A,B" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestParseIgnoresMarkersInsideBodyLines(t *testing.T) {
	text := "Smoke!\nJoined: fan @three\nx -- stats -- y\n\nJoined:\nBob\n\n-- stats --\ntoday: 1"

	v := layout.Parse(text)
	if v.Body != "Smoke!\nJoined: fan @three\nx -- stats -- y" {
		t.Fatalf("unexpected body: %q", v.Body)
	}
	if strings.Join(v.Lines, ",") != "Bob" {
		t.Fatalf("unexpected lines: %v", v.Lines)
	}
	if v.Trailer != "-- stats --\ntoday: 1" {
		t.Fatalf("unexpected trailer: %q", v.Trailer)
	}

	got, state, err := layout.Toggle(text, "Carol")
	if err != nil || state != models.StateJoined {
		t.Fatalf("expected join, got %q, %v", state, err)
	}
	want := "Smoke!\nJoined: fan @three\nx -- stats -- y\n\nJoined:\nBob\nCarol\n\n-- stats --\ntoday: 1"
	if got != want {
		t.Fatalf("unexpected text:\n%q\nwant:\n%q", got, want)
	}
}

func TestSetFollowsState(t *testing.T) {
	text := "Body\n\nJoined:\nBob\nCarol"

	got, err := layout.Set(text, "Bob", models.StateJoined)
	if err != nil || got != text {
		t.Fatalf("expected present line to stay in place, got %q, %v", got, err)
	}
	got, err = layout.Set(text, "Alice", models.StateJoined)
	if err != nil || got != text+"\nAlice" {
		t.Fatalf("expected Alice appended, got %q, %v", got, err)
	}
	got, err = layout.Set(text, "Bob", models.StateLeft)
	if err != nil || got != "Body\n\nJoined:\nCarol" {
		t.Fatalf("expected Bob removed, got %q, %v", got, err)
	}
	got, err = layout.Set(text, "Alice", models.StateLeft)
	if err != nil || got != text {
		t.Fatalf("expected absent line to stay absent, got %q, %v", got, err)
	}
	if _, err := layout.Set(text, "x Joined: y", models.StateJoined); !errors.Is(err, ErrInvalidLine) {
		t.Fatalf("expected ErrInvalidLine, got %v", err)
	}
}

func lineSet(lines []string) map[string]bool {
	set := make(map[string]bool, len(lines))
	for _, l := range lines {
		set[l] = true
	}
	return set
}

func FuzzToggle(f *testing.F) {
	f.Add("Smoke!\n\nJoined:\nBob\n\n-- stats --\ntoday: 1", "Alice")
	f.Add("Joined:\n\n\nJoined:\n", "Bob")
	f.Add("-- stats --", "x")
	f.Add("plain text without sections", "  spaced   name ")
	f.Add("Joined:\nA\nA\n-- stats ---- stats --", "A")
	f.Add("Joined:\n--  stats\t--\nA", "B")
	f.Add("Hi\nJoined: fan\n\nJoined:\nA", "A")
	f.Add("Joined:  x\n  Joined:\nB\n-- stats -- tail", "C")

	f.Fuzz(func(t *testing.T, text, line string) {
		normalized, err := layout.NormalizeLine(line)
		if err != nil {
			got, _, toggleErr := layout.Toggle(text, line)
			if toggleErr == nil || got != text {
				t.Fatalf("expected rejected line to leave text unchanged")
			}
			return
		}

		before := layout.Parse(text)
		wasJoined := lineSet(before.Lines)[normalized]

		once, state, err := layout.Toggle(text, line)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if (state == models.StateJoined) == wasJoined {
			t.Fatalf("state %q inconsistent with prior membership %v", state, wasJoined)
		}

		mid := layout.Parse(once)
		if lineSet(mid.Lines)[normalized] == wasJoined {
			t.Fatalf("membership of %q did not flip", normalized)
		}
		if mid.Trailer != before.Trailer {
			t.Fatalf("trailer changed: %q -> %q", before.Trailer, mid.Trailer)
		}
		if before.Trailer != "" && !strings.HasSuffix(once, before.Trailer) {
			t.Fatalf("trailer not reattached at the end")
		}
		if mid.Body != before.Body {
			t.Fatalf("body changed: %q -> %q", before.Body, mid.Body)
		}

		twice, _, err := layout.Toggle(once, line)
		if err != nil {
			t.Fatalf("second toggle: %v", err)
		}
		after := layout.Parse(twice)
		a, b := lineSet(before.Lines), lineSet(after.Lines)
		if len(a) != len(b) {
			t.Fatalf("line set changed after round trip: %q -> %q", before.Lines, after.Lines)
		}
		for l := range a {
			if !b[l] {
				t.Fatalf("line %q lost after round trip", l)
			}
		}
	})
}
