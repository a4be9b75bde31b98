// Package realtime broadcasts DocUpdate events — one per target whose
// content changed on a given tick — to every connected WebSocket client
// (C9, C13 of SPEC_FULL.md).
package realtime

import (
	"encoding/json"

	"github.com/namba3/patrol/internal/domain"
)

// DocUpdate is the event published whenever the engine observes a target's
// content hash change. It is also the wire shape pushed to WebSocket
// subscribers.
type DocUpdate struct {
	Id        domain.Id
	Url       domain.Url
	Timestamp domain.Timestamp
}

// docUpdateWire is DocUpdate's JSON encoding: Timestamp uses the same
// "YYYY-MM-DD HH:MM:SS" display format as the report renderer, rather than
// the RFC3339Nano form of domain.Timestamp's own MarshalText.
type docUpdateWire struct {
	Id        string `json:"id"`
	Url       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

func (u DocUpdate) MarshalJSON() ([]byte, error) {
	return json.Marshal(docUpdateWire{
		Id:        u.Id.String(),
		Url:       u.Url.String(),
		Timestamp: u.Timestamp.String(),
	})
}
