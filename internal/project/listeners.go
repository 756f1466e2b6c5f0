package project

import (
	"fmt"
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/facets/internal/logfields"
)

// Listener is told that the project changed. It carries no payload; read
// the project for details.
type Listener interface {
	ProjectChanged()
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func()

func (f ListenerFunc) ProjectChanged() { f() }

// ListenerID identifies a registration for RemoveListener.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	l  Listener
}

// AddListener registers l. Listeners are called in registration order.
func (p *FacetedProject) AddListener(l Listener) ListenerID {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()
	p.nextListenerID++
	id := p.nextListenerID
	p.listeners = append(p.listeners, listenerEntry{id: id, l: l})
	return id
}

// RemoveListener unregisters id and reports whether it was registered. It
// may be called from inside a listener.
func (p *FacetedProject) RemoveListener(id ListenerID) bool {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()
	before := len(p.listeners)
	p.listeners = slices.DeleteFunc(p.listeners, func(e listenerEntry) bool { return e.id == id })
	return len(p.listeners) != before
}

// notifyListeners calls every listener registered at the time of the call.
// The list lock is not held during the calls.
func (p *FacetedProject) notifyListeners() {
	p.listenersMu.Lock()
	snapshot := slices.Clone(p.listeners)
	p.listenersMu.Unlock()

	for _, e := range snapshot {
		p.invokeListener(e)
	}
}

func (p *FacetedProject) invokeListener(e listenerEntry) {
	defer func() {
		if r := recover(); r != nil {
			p.recorder.IncListenerFailure()
			p.logger.Error("Project listener failed",
				slog.Uint64("listener_id", uint64(e.id)),
				logfields.Error(fmt.Errorf("panic: %v", r)))
		}
	}()
	e.l.ProjectChanged()
}
