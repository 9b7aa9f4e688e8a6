package services

import (
	"context"
	"gamewarden/internal/console"
	"gamewarden/internal/models"
	"gamewarden/internal/storage"
	"gamewarden/internal/structures"
	"time"
)

// ConnectionStates exposes the connection state machine per server.
type ConnectionStates interface {
	State(id string) console.State
}

type ServerStatus struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Connection    string     `json:"connection"`
	Players       []string   `json:"players"`
	RosterChanged *time.Time `json:"roster_changed,omitempty"`
	MessageID     string     `json:"message_id,omitempty"`
	LastBackup    string     `json:"last_backup,omitempty"`
	LastBackupAt  *time.Time `json:"last_backup_at,omitempty"`
}

type StatusServiceInterface interface {
	Servers(ctx context.Context) ([]ServerStatus, error)
	ServerCount() int
	RejectedCount() int
}

type StatusService struct {
	profiles []console.Profile
	rejected int
	conns    ConnectionStates
	store    storage.StateStore
}

// Servers reads the persisted state of every scheduled server, in config order.
func (ss *StatusService) Servers(ctx context.Context) ([]ServerStatus, error) {
	out := make([]ServerStatus, 0, len(ss.profiles))
	for _, p := range ss.profiles {
		st := ServerStatus{
			ID:         p.ID(),
			Kind:       p.Strategy.Kind,
			Connection: ss.conns.State(p.ID()).String(),
			Players:    []string{},
		}

		snap, ok, err := storage.GetRoster(ctx, ss.store, p.ID())
		if err != nil {
			return nil, err
		}
		if ok {
			st.Players = models.NewRoster(snap.Players...)
			st.RosterChanged = &snap.Time
		}

		msg, ok, err := storage.GetStatusMessage(ctx, ss.store, p.ID())
		if err != nil {
			return nil, err
		}
		if ok {
			st.MessageID = msg.MessageID
		}

		rec, ok, err := storage.GetBackup(ctx, ss.store, p.ID())
		if err != nil {
			return nil, err
		}
		if ok {
			st.LastBackup = rec.Filename
			st.LastBackupAt = &rec.Time
		}
		out = append(out, st)
	}
	return out, nil
}

func (ss *StatusService) ServerCount() int {
	return len(ss.profiles)
}

func (ss *StatusService) RejectedCount() int {
	return ss.rejected
}

func NewStatusService(conf *structures.Config, profiles []console.Profile, conns ConnectionStates, store storage.StateStore) StatusServiceInterface {
	return &StatusService{
		profiles: profiles,
		rejected: len(conf.Rejected),
		conns:    conns,
		store:    store,
	}
}
