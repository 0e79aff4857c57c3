package report

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"storewatch/internal/catalog"
	"storewatch/internal/diff"
)

func TestFixedMessages(t *testing.T) {
	if m := FirstRunMessage(); m.Kind != FirstRun || !strings.Contains(m.Text, "First run") {
		t.Fatalf("first run = %+v", m)
	}
	if m := NoChangeMessage(); m.Kind != NoChange || !strings.Contains(m.Text, "No changes detected") {
		t.Fatalf("no change = %+v", m)
	}
	if m := ForDiff(diff.Result{}); m.Kind != NoChange {
		t.Fatalf("ForDiff(empty) kind = %v", m.Kind)
	}
}

func TestChangedMessageSections(t *testing.T) {
	tests := []struct {
		name string
		d    diff.Result
		want string
	}{
		{
			name: "added and removed",
			d: diff.Result{
				Added:   catalog.Collection{{ID: "c", Name: "Gamma"}},
				Removed: catalog.Collection{{ID: "b", Name: "Beta"}},
			},
			want: "🟢 <b>Added items:</b>\n+ Gamma\n🔴 <b>Removed items:</b>\n− Beta",
		},
		{
			name: "added only",
			d:    diff.Result{Added: catalog.Collection{{ID: "c", Name: "Gamma"}, {ID: "d", Name: "Delta"}}},
			want: "🟢 <b>Added items:</b>\n+ Gamma\n+ Delta",
		},
		{
			name: "removed only",
			d:    diff.Result{Removed: catalog.Collection{{ID: "b", Name: "Beta"}}},
			want: "🔴 <b>Removed items:</b>\n− Beta",
		},
		{
			name: "name is escaped and falls back to id",
			d:    diff.Result{Added: catalog.Collection{{ID: "x", Name: "<Tom & Jerry>"}, {ID: "id-9"}}},
			want: "🟢 <b>Added items:</b>\n+ &lt;Tom &amp; Jerry&gt;\n+ id-9",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			m := ForDiff(tt.d)
			if m.Kind != Changed {
				t.Fatalf("kind = %v", m.Kind)
			}
			if m.ParseMode != ParseModeHTML {
				t.Fatalf("parse mode = %q", m.ParseMode)
			}
			if m.Text != tt.want {
				t.Fatalf("text =\n%s\nwant\n%s", m.Text, tt.want)
			}
		})
	}
}

func TestChangedMessageTruncates(t *testing.T) {
	var added catalog.Collection
	for i := 0; i < 500; i++ {
		added = append(added, catalog.Item{ID: fmt.Sprint(i), Name: fmt.Sprintf("Item number %03d with a long name", i)})
	}
	m := ChangedMessage(diff.Result{Added: added, Removed: catalog.Collection{{ID: "old", Name: "Old"}}})
	if n := utf8.RuneCountInString(m.Text); n > MaxRunes {
		t.Fatalf("message has %d runes, limit %d", n, MaxRunes)
	}
	if !strings.Contains(m.Text, "more") {
		t.Fatalf("expected truncation trailer, got tail %q", m.Text[len(m.Text)-40:])
	}
	shown := strings.Count(m.Text, "\n+ ")
	var rest int
	if _, err := fmt.Sscanf(m.Text[strings.LastIndex(m.Text, "… and ")+len("… and "):], "%d more", &rest); err != nil {
		t.Fatalf("parse trailer: %v", err)
	}
	if shown+rest != 501 {
		t.Fatalf("shown %d + rest %d != 501", shown, rest)
	}
}

func TestFailureMessage(t *testing.T) {
	m := FailureMessage(errors.New("failed to fetch items: HTTP 503 <Service Unavailable>"))
	if m.Kind != Failure {
		t.Fatalf("kind = %v", m.Kind)
	}
	if !strings.HasPrefix(m.Text, "⚠️ Error: ") {
		t.Fatalf("missing error prefix: %q", m.Text)
	}
	if !strings.Contains(m.Text, "503 &lt;Service Unavailable&gt;") {
		t.Fatalf("cause not escaped: %q", m.Text)
	}
	if FailureMessage(nil).Text == "" {
		t.Fatal("nil error should still render")
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{FirstRun: "first_run", NoChange: "no_change", Changed: "changed", Failure: "failure", Kind(0): "unknown"} {
		if k.String() != want {
			t.Fatalf("%d.String() = %q, want %q", k, k.String(), want)
		}
	}
}
