package project

import (
	"context"

	"git.home.luguber.info/inful/facets/internal/logfields"
)

// Refresh reloads the metadata document when its stamp differs from the
// last one loaded or saved, or when the last save failed, then notifies
// listeners. It reports whether a
// reload happened. Refresh is skipped while a mutation of p is running,
// including when called from inside one. A malformed document is returned
// as an error and leaves the in-memory state untouched.
func (p *FacetedProject) Refresh(ctx context.Context) (bool, error) {
	if p.inModification(ctx) {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, canceledError(err, 0)
	}
	release, ok := p.tryAcquire()
	if !ok {
		p.logger.DebugContext(ctx, "Refresh skipped, modification in progress")
		p.recorder.IncRefresh(false)
		return false, nil
	}
	reloaded := false
	defer func() {
		release()
		if reloaded {
			p.notifyListeners()
		}
		p.recorder.IncRefresh(reloaded)
	}()

	onDisk, err := p.store.CurrentStamp()
	if err != nil {
		return false, err
	}
	if onDisk == p.Stamp() && !p.Diverged() {
		return false, nil
	}

	ms, stamp, err := p.store.Load(p.cat)
	if err != nil {
		p.logger.WarnContext(ctx, "Failed to reload facet metadata", logfields.Error(err))
		return false, err
	}
	p.publish(fromMetadata(ms), &stamp)
	reloaded = true

	p.logger.InfoContext(ctx, "Reloaded externally modified facet metadata",
		logfields.Stamp(stamp.Short()),
		logfields.Count(len(ms.Installed)))
	return true, nil
}
