package roster

import (
	"context"
	"errors"
	"fmt"
	"gamewarden/internal/console"
	"gamewarden/internal/models"
	"gamewarden/internal/providers"
	"strings"
)

// Connections is the part of the connection manager the tracker needs.
type Connections interface {
	Ensure(ctx context.Context, p console.Profile) (*console.Handle, bool)
}

type TrackerInterface interface {
	Poll(ctx context.Context, p console.Profile) (models.Roster, error)
}

type Tracker struct {
	conns   Connections
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewTracker(conns Connections, logger providers.Logger, metrics providers.MetricsProviderInterface) TrackerInterface {
	return &Tracker{conns: conns, logger: logger, metrics: metrics}
}

// Poll returns who is online right now. An unreachable server has an empty
// roster. On a transport failure the roster is empty and the error wraps
// models.ErrConnectivity.
func (t *Tracker) Poll(ctx context.Context, p console.Profile) (models.Roster, error) {
	h, ok := t.conns.Ensure(ctx, p)
	if !ok {
		t.metrics.IncPolls(p.ID(), "offline")
		t.metrics.SetPlayersOnline(p.ID(), 0)
		return models.Roster{}, nil
	}

	r, err := t.fetch(ctx, p, h)
	switch {
	case err == nil:
		t.metrics.IncPolls(p.ID(), "ok")
		t.metrics.SetPlayersOnline(p.ID(), len(r))
		return r, nil
	case errors.Is(err, models.ErrConnectivity):
		t.metrics.IncPolls(p.ID(), "unreachable")
		t.metrics.SetPlayersOnline(p.ID(), 0)
		return models.Roster{}, err
	case errors.Is(err, models.ErrFatalConfig):
		t.metrics.IncPolls(p.ID(), "misconfigured")
		return nil, err
	default:
		t.metrics.IncPolls(p.ID(), "parse_error")
		return nil, err
	}
}

func (t *Tracker) fetch(ctx context.Context, p console.Profile, h *console.Handle) (models.Roster, error) {
	names, supported, err := h.Players(ctx)
	if supported {
		if err != nil {
			return nil, err
		}
		return models.NewRoster(names...), nil
	}

	if p.Strategy.ListCommand == "" {
		return nil, fmt.Errorf("%w: %s: session cannot list players and no list command is set", models.ErrFatalConfig, p.ID())
	}
	reply, err := h.Query(ctx, p.Strategy.ListCommand)
	if err != nil {
		return nil, err
	}
	t.logger.Debugf(providers.TypePoll, "%s: %q -> %q", p.ID(), p.Strategy.ListCommand, reply)
	return ParseListReply(p.ID(), reply)
}

// ParseListReply reads replies shaped like
// "There are 2 of a max of 20 players online: Ada, Bo".
func ParseListReply(server, reply string) (models.Roster, error) {
	i := strings.IndexByte(reply, ':')
	if i < 0 {
		return nil, &models.ParseError{Server: server, Reply: reply, Reason: "no ':' in list reply"}
	}
	return models.NewRoster(strings.Split(reply[i+1:], ",")...), nil
}
