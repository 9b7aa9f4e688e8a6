package storage

import (
	"context"
	"errors"
	"fmt"
	"gamewarden/internal/models"
	"gamewarden/internal/structures"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("state store closed")

// StateStore is a durable per-key document store. Every Upsert is atomic on its
// own; there are no cross-key transactions.
type StateStore interface {
	// Select decodes the document stored under collection/key into doc and
	// reports whether one existed.
	Select(ctx context.Context, collection, key string, doc any) (bool, error)
	// Upsert replaces the document and returns the previous encoded one, or nil.
	Upsert(ctx context.Context, collection, key string, doc any) ([]byte, error)
	Close() error
}

func GetRoster(ctx context.Context, s StateStore, server string) (models.RosterSnapshot, bool, error) {
	var snap models.RosterSnapshot
	ok, err := s.Select(ctx, models.CollectionPlayers, server, &snap)
	return snap, ok, err
}

func PutRoster(ctx context.Context, s StateStore, snap models.RosterSnapshot) error {
	if snap.Players == nil {
		snap.Players = []string{}
	}
	_, err := s.Upsert(ctx, models.CollectionPlayers, snap.Game, snap)
	return err
}

func GetStatusMessage(ctx context.Context, s StateStore, server string) (models.StatusMessageRecord, bool, error) {
	var rec models.StatusMessageRecord
	ok, err := s.Select(ctx, models.CollectionMessages, server, &rec)
	return rec, ok, err
}

func PutStatusMessage(ctx context.Context, s StateStore, rec models.StatusMessageRecord) error {
	_, err := s.Upsert(ctx, models.CollectionMessages, rec.Game, rec)
	return err
}

func GetBackup(ctx context.Context, s StateStore, server string) (models.BackupRecord, bool, error) {
	var rec models.BackupRecord
	ok, err := s.Select(ctx, models.CollectionBackups, server, &rec)
	return rec, ok, err
}

func PutBackup(ctx context.Context, s StateStore, rec models.BackupRecord) error {
	_, err := s.Upsert(ctx, models.CollectionBackups, rec.Game, rec)
	return err
}

// NewStateStore opens the SQLite store configured under state.path.
func NewStateStore(conf *structures.Config) (StateStore, error) {
	s, err := OpenSQLiteStore(conf.State.Path)
	if err != nil {
		return nil, fmt.Errorf("open state store %s: %w", conf.State.Path, err)
	}
	return s, nil
}
