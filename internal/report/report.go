// Package report renders cycle results into chat messages.
//
// Formatting is pure: it maps a diff or an error to text and never performs
// I/O. Output uses Telegram HTML parse mode, so item names are escaped.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"storewatch/internal/diff"
	"storewatch/pkg/tgui"
)

// Kind selects one of the mutually exclusive report shapes.
type Kind int

const (
	FirstRun Kind = iota + 1
	NoChange
	Changed
	Failure
)

func (k Kind) String() string {
	switch k {
	case FirstRun:
		return "first_run"
	case NoChange:
		return "no_change"
	case Changed:
		return "changed"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// ParseModeHTML is the Telegram parse mode every message is written for.
const ParseModeHTML = "HTML"

// MaxRunes keeps a report inside Telegram's 4096 character message limit.
const MaxRunes = 4000

var (
	addedHeader   = "🟢 " + tgui.B("Added items:")
	removedHeader = "🔴 " + tgui.B("Removed items:")
)

const (
	firstRunText  = "📦 First run: items cached, no comparison performed."
	noChangeText  = "✅ No changes detected."
	addedPrefix   = "+ "
	removedPrefix = "− "
	failurePrefix = "⚠️ Error: "
)

// Message is one composed notification.
type Message struct {
	Kind      Kind
	Text      string
	ParseMode string
}

func FirstRunMessage() Message {
	return Message{Kind: FirstRun, Text: firstRunText, ParseMode: ParseModeHTML}
}

func NoChangeMessage() Message {
	return Message{Kind: NoChange, Text: noChangeText, ParseMode: ParseModeHTML}
}

// ForDiff returns NoChange for an empty delta and Changed otherwise.
func ForDiff(d diff.Result) Message {
	if d.Empty() {
		return NoChangeMessage()
	}
	return ChangedMessage(d)
}

// ChangedMessage lists added items, then removed items. An empty section is
// left out entirely. Long reports are cut at a line boundary and end with a
// count of the items that did not fit.
func ChangedMessage(d diff.Result) Message {
	lines := make([]line, 0, len(d.Added)+len(d.Removed)+2)
	if len(d.Added) > 0 {
		lines = append(lines, line{text: addedHeader.String()})
		for _, it := range d.Added {
			lines = append(lines, line{text: tgui.Line(addedPrefix, it.Label()).String(), item: true})
		}
	}
	if len(d.Removed) > 0 {
		lines = append(lines, line{text: removedHeader.String()})
		for _, it := range d.Removed {
			lines = append(lines, line{text: tgui.Line(removedPrefix, it.Label()).String(), item: true})
		}
	}
	return Message{Kind: Changed, Text: fit(lines, MaxRunes), ParseMode: ParseModeHTML}
}

// FailureMessage carries the human-readable cause of err.
func FailureMessage(err error) Message {
	cause := "unknown error"
	if err != nil {
		cause = err.Error()
	}
	return Message{Kind: Failure, Text: tgui.Line(failurePrefix, cause).String(), ParseMode: ParseModeHTML}
}

type line struct {
	text string
	item bool
}

func fit(lines []line, limit int) string {
	const reserve = 32 // room for the "… and N more" trailer

	var b strings.Builder
	used := 0
	for i, ln := range lines {
		n := utf8.RuneCountInString(ln.text) + 1
		if used+n > limit-reserve {
			rest := 0
			for _, r := range lines[i:] {
				if r.item {
					rest++
				}
			}
			if rest > 0 {
				fmt.Fprintf(&b, "… and %d more", rest)
			}
			return strings.TrimRight(b.String(), "\n")
		}
		b.WriteString(ln.text)
		b.WriteByte('\n')
		used += n
	}
	return strings.TrimRight(b.String(), "\n")
}
