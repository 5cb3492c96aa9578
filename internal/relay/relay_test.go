package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/huhu/rustdoc-relay/internal/docpage"
	"github.com/huhu/rustdoc-relay/internal/index"
)

type recordingBus struct {
	messages []Message
}

func (b *recordingBus) Broadcast(_ context.Context, msg Message) error {
	b.messages = append(b.messages, msg)
	return nil
}

func parsePage(t *testing.T, html string) *docpage.Page {
	t.Helper()
	page, err := docpage.Parse(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return page
}

const sidebarHTML = `<nav class="sidebar"><div class="version"><p>1.80.0-nightly (abcdef123 2024-05-01)</p></div></nav>`

func TestRelaySendsExactlyOneMessage(t *testing.T) {
	ix := index.SearchIndex{
		"std":        json.RawMessage(`"A"`),
		"test":       json.RawMessage(`"B"`),
		"proc_macro": json.RawMessage(`"C"`),
		"alloc":      json.RawMessage(`"D"`),
	}
	bus := &recordingBus{}

	if err := Relay(context.Background(), ix, parsePage(t, sidebarHTML), bus); err != nil {
		t.Fatalf("Relay failed: %v", err)
	}

	if len(bus.messages) != 1 {
		t.Fatalf("expected exactly 1 message, got %d", len(bus.messages))
	}
	msg := bus.messages[0]
	if msg.Direction != "rust-search-extension:nightly" {
		t.Errorf("unexpected direction: %q", msg.Direction)
	}
	if msg.Message.NightlyVersion != "1.80.0-nightly (abcdef123 2024-05-01)" {
		t.Errorf("unexpected version: %q", msg.Message.NightlyVersion)
	}
	if len(msg.Message.SearchIndex) != 3 {
		t.Errorf("expected 3 crates, got %d", len(msg.Message.SearchIndex))
	}
	if _, ok := msg.Message.SearchIndex["alloc"]; ok {
		t.Error("alloc leaked into the relayed index")
	}
}

func TestRelayWireShape(t *testing.T) {
	ix := index.SearchIndex{"std": json.RawMessage(`{"doc":"std"}`)}
	bus := &recordingBus{}

	if err := Relay(context.Background(), ix, parsePage(t, sidebarHTML), bus); err != nil {
		t.Fatal(err)
	}

	out, err := json.Marshal(bus.messages[0])
	if err != nil {
		t.Fatal(err)
	}
	want := `{"direction":"rust-search-extension:nightly","message":{"nightlyVersion":"1.80.0-nightly (abcdef123 2024-05-01)","searchIndex":{"proc_macro":null,"std":{"doc":"std"},"test":null}}}`
	if string(out) != want {
		t.Errorf("wire shape mismatch:\n got %s\nwant %s", out, want)
	}
}

func TestRelayNilIndex(t *testing.T) {
	bus := &recordingBus{}
	err := Relay(context.Background(), nil, parsePage(t, sidebarHTML), bus)
	if !errors.Is(err, ErrNoSearchIndex) {
		t.Fatalf("expected ErrNoSearchIndex, got %v", err)
	}
	if len(bus.messages) != 0 {
		t.Fatal("no message may be sent on failure")
	}
}

func TestRelayMissingVersionNode(t *testing.T) {
	bus := &recordingBus{}
	ix := index.SearchIndex{"std": json.RawMessage(`1`)}

	err := Relay(context.Background(), ix, parsePage(t, `<nav class="sidebar"></nav>`), bus)
	if !errors.Is(err, docpage.ErrNoVersionNode) {
		t.Fatalf("expected ErrNoVersionNode, got %v", err)
	}
	if len(bus.messages) != 0 {
		t.Fatal("no message may be sent on failure")
	}
}

func TestHTTPBroadcasterPostsJSON(t *testing.T) {
	var got atomic.Pointer[Message]
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var msg Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode body: %v", err)
		}
		got.Store(&msg)
	}))
	defer server.Close()

	b := NewHTTPBroadcaster(server.URL)
	b.Client = server.Client()
	msg := NewMessage("1.80.0-nightly", index.Reduce(index.SearchIndex{"std": json.RawMessage(`"A"`)}))

	if err := b.Broadcast(context.Background(), msg); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	received := got.Load()
	if received == nil {
		t.Fatal("server received nothing")
	}
	if received.Direction != DirectionNightly {
		t.Errorf("unexpected direction: %q", received.Direction)
	}
}

func TestHTTPBroadcasterPostsOnceOnServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	b := NewHTTPBroadcaster(server.URL)
	b.Client = server.Client()

	err := b.Broadcast(context.Background(), NewMessage("v", index.SearchIndex{}))
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error should carry the status, got %v", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("a rejected message must not be resent: got %d POSTs, want 1", got)
	}
}

func TestWriterBroadcaster(t *testing.T) {
	var sb strings.Builder
	b := &WriterBroadcaster{W: &sb}

	if err := b.Broadcast(context.Background(), NewMessage("v", index.SearchIndex{})); err != nil {
		t.Fatal(err)
	}
	line := sb.String()
	if !strings.HasSuffix(line, "\n") {
		t.Error("expected a newline-terminated record")
	}
	var msg Message
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if msg.Direction != DirectionNightly {
		t.Errorf("unexpected direction: %q", msg.Direction)
	}
}
