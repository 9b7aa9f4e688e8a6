package console

import (
	"context"
	"fmt"
	"gamewarden/internal/models"
	"gamewarden/internal/providers"
	"sync"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// entry is the single connection slot of one server. mu is held for exactly
// one external call (dial, command or close).
type entry struct {
	mu      sync.Mutex
	state   State
	session Session
}

// ConnectionManager owns every console connection. It is the only place that
// moves a server between Disconnected, Connecting and Connected.
type ConnectionManager struct {
	mu       sync.Mutex
	entries  map[string]*entry
	services ServiceChecker
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewConnectionManager(services ServiceChecker, logger providers.Logger, metrics providers.MetricsProviderInterface) *ConnectionManager {
	return &ConnectionManager{
		entries:  make(map[string]*entry),
		services: services,
		logger:   logger,
		metrics:  metrics,
	}
}

func (m *ConnectionManager) slot(id string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		e = &entry{}
		m.entries[id] = e
	}
	return e
}

// Ensure returns a handle to the server console, or false when the service is
// down or the console cannot be reached. A down service is never dialled.
func (m *ConnectionManager) Ensure(ctx context.Context, p Profile) (*Handle, bool) {
	e := m.slot(p.ID())

	active, err := m.services.IsActive(ctx, p.ServiceName())
	if err != nil {
		m.logger.Warnf(providers.TypePoll, "%s: service status of %s unknown: %s", p.ID(), p.ServiceName(), err)
		active = false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !active {
		if e.session != nil {
			m.logger.Infof(providers.TypePoll, "%s: service %s inactive, dropping connection", p.ID(), p.ServiceName())
		}
		m.dropLocked(p.ID(), e)
		return nil, false
	}

	if e.session != nil {
		return &Handle{id: p.ID(), manager: m, slot: e, session: e.session}, true
	}

	m.setStateLocked(p.ID(), e, Connecting)
	session, err := p.Strategy.Dial(ctx, p.Config)
	if err != nil {
		m.logger.Debugf(providers.TypePoll, "%s: console connect failed: %s", p.ID(), err)
		m.dropLocked(p.ID(), e)
		return nil, false
	}
	e.session = session
	m.setStateLocked(p.ID(), e, Connected)
	m.logger.Infof(providers.TypePoll, "%s: console connected", p.ID())

	return &Handle{id: p.ID(), manager: m, slot: e, session: session}, true
}

// Exec runs one console command, connecting first if needed.
func (m *ConnectionManager) Exec(ctx context.Context, p Profile, command string) (string, error) {
	h, ok := m.Ensure(ctx, p)
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrConnectivity, p.ID())
	}
	return h.Query(ctx, command)
}

// Invalidate discards the cached connection so the next Ensure reconnects.
func (m *ConnectionManager) Invalidate(id string) {
	e := m.slot(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	m.dropLocked(id, e)
}

func (m *ConnectionManager) State(id string) State {
	e := m.slot(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Close drops every cached connection.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Invalidate(id)
	}
}

func (m *ConnectionManager) dropLocked(id string, e *entry) {
	if e.session != nil {
		if err := e.session.Close(); err != nil {
			m.logger.Debugf(providers.TypePoll, "%s: closing console: %s", id, err)
		}
		e.session = nil
	}
	m.setStateLocked(id, e, Disconnected)
}

func (m *ConnectionManager) setStateLocked(id string, e *entry, s State) {
	e.state = s
	m.metrics.SetConnectionState(id, int(s))
}

// Handle is a borrowed view of a cached connection. Commands on it are
// serialised with every other user of the same server's connection.
type Handle struct {
	id      string
	manager *ConnectionManager
	slot    *entry
	session Session
}

// Query sends one command. Any error invalidates the connection.
func (h *Handle) Query(ctx context.Context, command string) (string, error) {
	h.slot.mu.Lock()
	defer h.slot.mu.Unlock()

	if h.slot.session != h.session {
		return "", fmt.Errorf("%w: %s: connection was reset", models.ErrConnectivity, h.id)
	}
	out, err := h.session.Query(ctx, command)
	if err != nil {
		h.manager.logger.Warnf(providers.TypePoll, "%s: command %q failed, dropping connection: %s", h.id, command, err)
		h.manager.dropLocked(h.id, h.slot)
		return "", fmt.Errorf("%w: %s: %v", models.ErrConnectivity, h.id, err)
	}
	return out, nil
}

// Players asks the session for its roster directly. supported is false when
// the session only understands text commands.
func (h *Handle) Players(ctx context.Context) (names []string, supported bool, err error) {
	lister, ok := h.session.(PlayerLister)
	if !ok {
		return nil, false, nil
	}

	h.slot.mu.Lock()
	defer h.slot.mu.Unlock()

	if h.slot.session != h.session {
		return nil, true, fmt.Errorf("%w: %s: connection was reset", models.ErrConnectivity, h.id)
	}
	names, err = lister.Players(ctx)
	if err != nil {
		h.manager.dropLocked(h.id, h.slot)
		return nil, true, fmt.Errorf("%w: %s: %v", models.ErrConnectivity, h.id, err)
	}
	return names, true, nil
}
