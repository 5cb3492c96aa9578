// Package relay implements the one-shot extraction-and-broadcast that
// delivers the nightly search index to the extension.
package relay

import (
	"github.com/huhu/rustdoc-relay/internal/index"
)

// DirectionNightly is the discriminator the extension's privileged side
// matches on before reading the payload.
const DirectionNightly = "rust-search-extension:nightly"

// NightlyPayload is the message body: the toolchain version string as it
// appears on the docs page and the reduced search index.
type NightlyPayload struct {
	NightlyVersion string            `json:"nightlyVersion"`
	SearchIndex    index.SearchIndex `json:"searchIndex"`
}

// Message is the full wire record. Direction is always DirectionNightly;
// it exists as a field so the receiving side can demultiplex.
type Message struct {
	Direction string         `json:"direction"`
	Message   NightlyPayload `json:"message"`
}

// NewMessage builds the outgoing record for an already-reduced index.
func NewMessage(nightlyVersion string, reduced index.SearchIndex) Message {
	return Message{
		Direction: DirectionNightly,
		Message: NightlyPayload{
			NightlyVersion: nightlyVersion,
			SearchIndex:    reduced,
		},
	}
}
