package cycle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storewatch/internal/catalog"
	"storewatch/internal/report"
	"storewatch/internal/snapshot"
	logx "storewatch/pkg/logx"
)

type fakeFetcher struct {
	items catalog.Collection
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(context.Context) (catalog.Collection, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeStore struct {
	items   catalog.Collection
	present bool
	loadErr error
	saveErr error
	saves   int
}

func (s *fakeStore) Load(context.Context) (catalog.Collection, bool, error) {
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	return s.items, s.present, nil
}

func (s *fakeStore) Save(_ context.Context, items catalog.Collection) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.items = append(catalog.Collection(nil), items...)
	s.present = true
	return nil
}

type fakeSink struct {
	sent []report.Message
	err  error
}

func (s *fakeSink) Send(_ context.Context, msg report.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type panicFetcher struct{}

func (panicFetcher) Fetch(context.Context) (catalog.Collection, error) { panic("boom") }

func items(pairs ...string) catalog.Collection {
	var out catalog.Collection
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, catalog.Item{ID: pairs[i], Name: pairs[i+1]})
	}
	return out
}

func TestFirstRunSavesThenReports(t *testing.T) {
	f := &fakeFetcher{items: items("a", "Alpha", "b", "Beta")}
	st := &fakeStore{}
	sink := &fakeSink{}

	out := New(f, st, sink, logx.Nop()).Run(context.Background())

	if out.Err != nil || out.Kind != report.FirstRun || !out.Saved {
		t.Fatalf("outcome = %+v", out)
	}
	if st.saves != 1 || len(st.items) != 2 {
		t.Fatalf("store = %+v", st)
	}
	if len(sink.sent) != 1 || sink.sent[0].Kind != report.FirstRun {
		t.Fatalf("sent = %+v", sink.sent)
	}
	if out.ID == "" {
		t.Fatal("missing cycle id")
	}
}

func TestNoChange(t *testing.T) {
	f := &fakeFetcher{items: items("b", "Beta", "a", "Alpha")}
	st := &fakeStore{items: items("a", "Alpha", "b", "Beta"), present: true}
	sink := &fakeSink{}

	out := New(f, st, sink, logx.Nop()).Run(context.Background())

	if out.Err != nil || out.Kind != report.NoChange {
		t.Fatalf("outcome = %+v", out)
	}
	if len(sink.sent) != 1 || sink.sent[0].Kind != report.NoChange {
		t.Fatalf("sent = %+v", sink.sent)
	}
	if st.saves != 1 {
		t.Fatalf("saves = %d, want 1", st.saves)
	}
}

func TestChangeReportedAndBaselineReplaced(t *testing.T) {
	f := &fakeFetcher{items: items("a", "Alpha", "c", "Gamma")}
	st := &fakeStore{items: items("a", "Alpha", "b", "Beta"), present: true}
	sink := &fakeSink{}

	out := New(f, st, sink, logx.Nop()).Run(context.Background())

	if out.Err != nil || out.Kind != report.Changed || out.Added != 1 || out.Removed != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("sent %d messages", len(sink.sent))
	}
	text := sink.sent[0].Text
	if !strings.Contains(text, "+ Gamma") || !strings.Contains(text, "− Beta") {
		t.Fatalf("text = %q", text)
	}
	if got := st.items.IDs(); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("baseline = %v", got)
	}
}

func TestFetchFailureLeavesSnapshot(t *testing.T) {
	f := &fakeFetcher{err: &catalog.FetchError{Status: 503}}
	baseline := items("a", "Alpha")
	st := &fakeStore{items: baseline, present: true}
	sink := &fakeSink{}

	out := New(f, st, sink, logx.Nop()).Run(context.Background())

	if out.Kind != report.Failure || out.Err == nil {
		t.Fatalf("outcome = %+v", out)
	}
	var fe *catalog.FetchError
	if !errors.As(out.Err, &fe) || fe.Status != 503 {
		t.Fatalf("err = %v", out.Err)
	}
	if st.saves != 0 {
		t.Fatal("snapshot must not be written on fetch failure")
	}
	if len(sink.sent) != 1 || sink.sent[0].Kind != report.Failure {
		t.Fatalf("sent = %+v", sink.sent)
	}
	if !strings.Contains(sink.sent[0].Text, "503") {
		t.Fatalf("failure text = %q", sink.sent[0].Text)
	}
}

func TestCorruptSnapshotReportsFailure(t *testing.T) {
	f := &fakeFetcher{items: items("a", "Alpha")}
	st := &fakeStore{loadErr: &snapshot.ReadError{Path: "cached_items.json", Err: errors.New("unexpected EOF")}}
	sink := &fakeSink{}

	out := New(f, st, sink, logx.Nop()).Run(context.Background())

	if out.Kind != report.Failure || !errors.Is(out.Err, snapshot.ErrRead) {
		t.Fatalf("outcome = %+v", out)
	}
	if st.saves != 0 {
		t.Fatal("corrupt snapshot must not be overwritten")
	}
	if len(sink.sent) != 1 || sink.sent[0].Kind != report.Failure {
		t.Fatalf("sent = %+v", sink.sent)
	}
}

func TestSendFailureKeepsBaseline(t *testing.T) {
	f := &fakeFetcher{items: items("a", "Alpha", "c", "Gamma")}
	st := &fakeStore{items: items("a", "Alpha", "b", "Beta"), present: true}
	sink := &fakeSink{err: errors.New("telegram: 502")}
	r := New(f, st, sink, logx.Nop())

	out := r.Run(context.Background())
	if out.Err == nil || out.Saved {
		t.Fatalf("outcome = %+v", out)
	}
	if st.saves != 0 {
		t.Fatal("baseline replaced although the report was not delivered")
	}

	// Once delivery recovers the same delta is reported again.
	sink.err = nil
	sink.sent = nil
	out = r.Run(context.Background())
	if out.Err != nil || out.Kind != report.Changed || out.Added != 1 || out.Removed != 1 {
		t.Fatalf("retry outcome = %+v", out)
	}
}

func TestSaveFailureAfterReport(t *testing.T) {
	f := &fakeFetcher{items: items("a", "Alpha", "c", "Gamma")}
	st := &fakeStore{items: items("a", "Alpha"), present: true, saveErr: &snapshot.WriteError{Path: "x", Err: errors.New("disk full")}}
	sink := &fakeSink{}

	out := New(f, st, sink, logx.Nop()).Run(context.Background())

	if out.Kind != report.Changed || !errors.Is(out.Err, snapshot.ErrWrite) || out.Saved {
		t.Fatalf("outcome = %+v", out)
	}
	if len(sink.sent) != 2 || sink.sent[0].Kind != report.Changed || sink.sent[1].Kind != report.Failure {
		t.Fatalf("sent = %+v", sink.sent)
	}
}

func TestFirstRunSaveFailure(t *testing.T) {
	f := &fakeFetcher{items: items("a", "Alpha")}
	st := &fakeStore{saveErr: errors.New("read-only file system")}
	sink := &fakeSink{}

	out := New(f, st, sink, logx.Nop()).Run(context.Background())

	if out.Kind != report.Failure || out.Err == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if len(sink.sent) != 1 || sink.sent[0].Kind != report.Failure {
		t.Fatalf("sent = %+v", sink.sent)
	}
}

func TestFailureSendErrorIsJoined(t *testing.T) {
	fetchErr := &catalog.FetchError{Err: errors.New("connection refused")}
	sendErr := errors.New("chat not found")
	out := New(&fakeFetcher{err: fetchErr}, &fakeStore{}, &fakeSink{err: sendErr}, logx.Nop()).Run(context.Background())

	if !errors.Is(out.Err, fetchErr) || !errors.Is(out.Err, sendErr) {
		t.Fatalf("err = %v", out.Err)
	}
}

func TestPanicBecomesFailure(t *testing.T) {
	sink := &fakeSink{}
	out := New(panicFetcher{}, &fakeStore{}, sink, logx.Nop()).Run(context.Background())

	if out.Kind != report.Failure || out.Err == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if len(sink.sent) != 1 || !strings.Contains(sink.sent[0].Text, "boom") {
		t.Fatalf("sent = %+v", sink.sent)
	}
}

func TestCycleIDsAreUnique(t *testing.T) {
	r := New(&fakeFetcher{items: items("a", "A")}, &fakeStore{}, &fakeSink{}, logx.Logger{})
	a := r.Run(context.Background())
	b := r.Run(context.Background())
	if a.ID == b.ID {
		t.Fatalf("duplicate cycle id %s", a.ID)
	}
}
