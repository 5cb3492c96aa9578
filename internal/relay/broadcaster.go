package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Broadcaster delivers one outgoing message to an explicit recipient.
// The recipient never acknowledges at this layer; a nil error only means
// the message left the process.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg Message) error
}

// HTTPBroadcaster posts the message as JSON to a fixed target URL.
type HTTPBroadcaster struct {
	Target string
	Client *http.Client
	Logger *slog.Logger
}

func NewHTTPBroadcaster(target string) *HTTPBroadcaster {
	return &HTTPBroadcaster{
		Target: target,
		Client: http.DefaultClient,
	}
}

// Broadcast posts the message exactly once. A failed delivery is
// reported, never retried: retrying here could hand the recipient the
// same message twice, and the relay promises at most one send per
// invocation. Transient upstream trouble is retried on the fetch side
// instead, before any message exists.
func (b *HTTPBroadcaster) Broadcast(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if err := b.post(ctx, body); err != nil {
		return err
	}
	if b.Logger != nil {
		b.Logger.Debug("broadcast delivered", "target", b.Target)
	}
	return nil
}

func (b *HTTPBroadcaster) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build broadcast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("broadcast: status %s", resp.Status)
	}
	return nil
}

// WriterBroadcaster writes the message as one JSON line. It covers the
// fire-and-forget case where the extension build pipeline consumes the
// payload from stdout.
type WriterBroadcaster struct {
	W io.Writer
}

func (b *WriterBroadcaster) Broadcast(_ context.Context, msg Message) error {
	enc := json.NewEncoder(b.W)
	if err := enc.Encode(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
