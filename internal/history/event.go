package history

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// Entry is one recorded lifecycle event of a faceted project.
type Entry struct {
	ID          int64             `json:"id"`
	OperationID string            `json:"operation_id"`
	Project     string            `json:"project"`
	Type        catalog.EventType `json:"type"`
	Timestamp   time.Time         `json:"timestamp"`
	Payload     Payload           `json:"payload"`
}

// Payload carries the event details that are meaningful for its type.
type Payload struct {
	Facet      string   `json:"facet,omitempty"`
	Version    string   `json:"version,omitempty"`
	OldPrimary string   `json:"old_primary,omitempty"`
	NewPrimary string   `json:"new_primary,omitempty"`
	Runtimes   []string `json:"runtimes,omitempty"`
	Fixed      []string `json:"fixed,omitempty"`
}

// Ref returns the facet version the entry is about, if any.
func (e Entry) Ref() (catalog.Ref, bool) {
	if e.Payload.Facet == "" {
		return catalog.Ref{}, false
	}
	return catalog.Ref{Facet: e.Payload.Facet, Version: e.Payload.Version}, true
}

// EntryFromEvent converts a delivered event into an entry ready to append.
func EntryFromEvent(ev catalog.Event, at time.Time) Entry {
	e := Entry{
		OperationID: ev.OperationID,
		Type:        ev.Type,
		Timestamp:   at,
		Payload: Payload{
			OldPrimary: ev.OldPrimary,
			NewPrimary: ev.NewPrimary,
			Runtimes:   ev.Runtimes,
			Fixed:      ev.Fixed,
		},
	}
	if ev.Project != nil {
		e.Project = ev.Project.Name()
	}
	if ev.Version != nil {
		e.Payload.Facet = ev.Version.FacetID()
		e.Payload.Version = ev.Version.Version()
	}
	return e
}

func marshalPayload(e Entry) ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal history payload").
			WithCause(err).
			WithContext("operation_id", e.OperationID).
			Build()
	}
	return data, nil
}
