package watcher

import (
	"context"
	"errors"
	"fmt"
	"gamewarden/internal/console"
	"gamewarden/internal/models"
	"gamewarden/internal/notifier"
	"gamewarden/internal/providers"
	"gamewarden/internal/roster"
	"gamewarden/internal/storage"
	"time"
)

// Pipeline runs one roster tick for one server: poll, diff, reconcile.
type Pipeline struct {
	tracker  roster.TrackerInterface
	notifier notifier.NotifierInterface
	store    storage.StateStore
	logger   providers.Logger
}

func NewPipeline(tracker roster.TrackerInterface, n notifier.NotifierInterface, store storage.StateStore, logger providers.Logger) *Pipeline {
	return &Pipeline{tracker: tracker, notifier: n, store: store, logger: logger}
}

// Tick returns a ParseError or ErrExternalAPI when the tick was aborted.
// An unreachable console is not an error; its roster is empty.
func (p *Pipeline) Tick(ctx context.Context, prof console.Profile, now time.Time) error {
	snap, _, err := storage.GetRoster(ctx, p.store, prof.ID())
	if err != nil {
		return fmt.Errorf("%w: %s: load roster: %v", models.ErrExternalAPI, prof.ID(), err)
	}

	current, err := p.tracker.Poll(ctx, prof)
	if err != nil {
		if !errors.Is(err, models.ErrConnectivity) {
			return err
		}
		p.logger.Warnf(providers.TypePoll, "%s: %s", prof.ID(), err)
	}

	change := models.Diff(models.Roster(snap.Players), current)
	if change.Empty() {
		return nil
	}

	return p.notifier.Reconcile(ctx, prof, change, models.RosterSnapshot{
		Game:    prof.ID(),
		Players: current,
		Time:    now,
	})
}
