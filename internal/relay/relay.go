package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/huhu/rustdoc-relay/internal/docpage"
	"github.com/huhu/rustdoc-relay/internal/index"
)

// ErrNoSearchIndex reports a relay attempt without a search index.
var ErrNoSearchIndex = errors.New("relay: no search index")

// Relay performs one extraction-and-broadcast: reduce the index to the
// nightly crates, read the version from the page, send exactly one
// message. Any failure aborts the whole operation; nothing is sent
// partially.
func Relay(ctx context.Context, ix index.SearchIndex, page *docpage.Page, bus Broadcaster) error {
	if ix == nil {
		return ErrNoSearchIndex
	}

	version, err := page.NightlyVersion()
	if err != nil {
		return err
	}

	return bus.Broadcast(ctx, NewMessage(version, index.Reduce(ix)))
}

// Source supplies the raw documents the relay reads: the docs page
// itself and the search-index payload it references.
type Source interface {
	DocsPage(ctx context.Context) ([]byte, error)
	SearchIndex(ctx context.Context, ref string) ([]byte, error)
}

// Archiver keeps the last relayed message around for the API server.
type Archiver interface {
	WriteNightly(ctx context.Context, payload []byte) error
}

// Service wires a Source, a Broadcaster and an optional Archiver into
// the full fetch → extract → broadcast run.
type Service struct {
	Source  Source
	Bus     Broadcaster
	Archive Archiver
	Logger  *slog.Logger
}

func (s *Service) Run(ctx context.Context) error {
	raw, err := s.Source.DocsPage(ctx)
	if err != nil {
		return fmt.Errorf("fetch docs page: %w", err)
	}

	page, err := docpage.Parse(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	ref, err := page.SearchIndexRef()
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Debug("resolved search index", "ref", ref)
	}

	payload, err := s.Source.SearchIndex(ctx, ref)
	if err != nil {
		return fmt.Errorf("fetch search index: %w", err)
	}

	ix, err := docpage.DecodeSearchIndex(payload)
	if err != nil {
		return err
	}

	version, err := page.NightlyVersion()
	if err != nil {
		return err
	}

	msg := NewMessage(version, index.Reduce(ix))

	if s.Logger != nil {
		s.Logger.Info("broadcasting nightly index", "version", version, "crates", len(msg.Message.SearchIndex))
	}
	if err := s.Bus.Broadcast(ctx, msg); err != nil {
		return err
	}

	// Archive only after the broadcast went out: the archive backs the
	// /api/nightly endpoint, which serves the latest *relayed* payload.
	if s.Archive != nil {
		encoded, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		if err := s.Archive.WriteNightly(ctx, encoded); err != nil {
			return fmt.Errorf("archive message: %w", err)
		}
	}
	return nil
}
