package history

import (
	"slices"
	"time"

	"git.home.luguber.info/inful/facets/internal/catalog"
)

// OperationSummary is a read model of one modification or settings change.
type OperationSummary struct {
	OperationID string              `json:"operation_id"`
	Project     string              `json:"project"`
	StartedAt   time.Time           `json:"started_at"`
	EndedAt     time.Time           `json:"ended_at"`
	Installed   []catalog.Ref       `json:"installed,omitempty"`
	Uninstalled []catalog.Ref       `json:"uninstalled,omitempty"`
	Changed     []catalog.Ref       `json:"changed,omitempty"`
	Settings    []catalog.EventType `json:"settings,omitempty"`
}

// Summarize groups entries by operation, newest operation first.
func Summarize(entries []Entry) []OperationSummary {
	byID := make(map[string]*OperationSummary)
	var order []string
	for _, e := range entries {
		s, ok := byID[e.OperationID]
		if !ok {
			s = &OperationSummary{OperationID: e.OperationID, Project: e.Project, StartedAt: e.Timestamp, EndedAt: e.Timestamp}
			byID[e.OperationID] = s
			order = append(order, e.OperationID)
		}
		if e.Timestamp.Before(s.StartedAt) {
			s.StartedAt = e.Timestamp
		}
		if e.Timestamp.After(s.EndedAt) {
			s.EndedAt = e.Timestamp
		}
		ref, hasRef := e.Ref()
		switch {
		case e.Type == catalog.EventPostInstall && hasRef:
			s.Installed = append(s.Installed, ref)
		case e.Type == catalog.EventPostUninstall && hasRef:
			s.Uninstalled = append(s.Uninstalled, ref)
		case e.Type == catalog.EventPostVersionChange && hasRef:
			s.Changed = append(s.Changed, ref)
		default:
			if !slices.Contains(s.Settings, e.Type) {
				s.Settings = append(s.Settings, e.Type)
			}
		}
	}

	out := make([]OperationSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	slices.SortStableFunc(out, func(a, b OperationSummary) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return out
}

// Replay reconstructs the installed facet versions from transitions in
// append order.
func Replay(entries []Entry) map[string]string {
	installed := make(map[string]string)
	for _, e := range entries {
		ref, ok := e.Ref()
		if !ok {
			continue
		}
		switch e.Type {
		case catalog.EventPostInstall, catalog.EventPostVersionChange:
			installed[ref.Facet] = ref.Version
		case catalog.EventPostUninstall:
			delete(installed, ref.Facet)
		}
	}
	return installed
}
