package notifier

import (
	"context"
	"fmt"
	"gamewarden/internal/console"
	"gamewarden/internal/models"
	"gamewarden/internal/providers"
	"gamewarden/internal/storage"
)

type NotifierInterface interface {
	Reconcile(ctx context.Context, p console.Profile, change models.Change, snap models.RosterSnapshot) error
}

// Notifier keeps exactly one live status message per server.
type Notifier struct {
	messenger Messenger
	store     storage.StateStore
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
}

func NewNotifier(messenger Messenger, store storage.StateStore, logger providers.Logger, metrics providers.MetricsProviderInterface) NotifierInterface {
	return &Notifier{messenger: messenger, store: store, logger: logger, metrics: metrics}
}

// Reconcile posts the change, retires the previous status message and then
// persists the new message id and the roster, in that order. When posting
// fails nothing is persisted so the next tick sees the same change again.
func (n *Notifier) Reconcile(ctx context.Context, p console.Profile, change models.Change, snap models.RosterSnapshot) error {
	text := change.Message()
	channel := p.Config.ChannelID

	id, err := n.messenger.Post(ctx, channel, text)
	if err != nil {
		n.metrics.IncNotifications(p.ID(), "post_failed")
		return fmt.Errorf("%w: %s: post status: %v", models.ErrExternalAPI, p.ID(), err)
	}
	n.logger.Infof(providers.TypeNotify, "%s: %s", p.ID(), text)

	prev, found, err := storage.GetStatusMessage(ctx, n.store, p.ID())
	switch {
	case err != nil:
		n.logger.Errorf(providers.TypeNotify, "%s: loading previous status message: %s", p.ID(), err)
	case found && prev.MessageID != "" && prev.MessageID != id:
		if err := n.messenger.Delete(ctx, channel, prev.MessageID); err != nil {
			n.logger.Warnf(providers.TypeNotify, "%s: deleting status message %s: %s", p.ID(), prev.MessageID, err)
		}
	}

	if err := storage.PutStatusMessage(ctx, n.store, models.StatusMessageRecord{Game: p.ID(), MessageID: id}); err != nil {
		n.metrics.IncNotifications(p.ID(), "persist_failed")
		return fmt.Errorf("%w: %s: store status message %s: %v", models.ErrExternalAPI, p.ID(), id, err)
	}

	snap.Game = p.ID()
	if err := storage.PutRoster(ctx, n.store, snap); err != nil {
		n.metrics.IncNotifications(p.ID(), "persist_failed")
		return fmt.Errorf("%w: %s: store roster: %v", models.ErrExternalAPI, p.ID(), err)
	}

	n.metrics.IncNotifications(p.ID(), "ok")
	return nil
}
