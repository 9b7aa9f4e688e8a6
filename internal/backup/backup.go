package backup

import (
	"context"
	"errors"
	"fmt"
	"gamewarden/internal/console"
	"gamewarden/internal/models"
	"gamewarden/internal/providers"
	"gamewarden/internal/storage"
	"gamewarden/internal/structures"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Connections is the part of the connection manager a backup run needs.
type Connections interface {
	Ensure(ctx context.Context, p console.Profile) (*console.Handle, bool)
	Exec(ctx context.Context, p console.Profile, command string) (string, error)
}

type BackupInterface interface {
	// MaybeBackup runs a backup cycle for p when one is due at now.
	MaybeBackup(ctx context.Context, p console.Profile, now time.Time) error
	// Run performs a backup cycle unconditionally.
	Run(ctx context.Context, p console.Profile, now time.Time) error
	// Shutdown refuses new backups and blocks until every server that had
	// autosave paused has it re-enabled. It has no timeout.
	Shutdown()
}

type Service struct {
	conns    Connections
	store    storage.StateStore
	archiver Archiver
	remote   RemoteStorage
	syncer   Syncer
	remoteTo string
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	gate     *quiesceGate
}

func NewService(
	conf *structures.Config,
	conns Connections,
	store storage.StateStore,
	archiver Archiver,
	remote RemoteStorage,
	syncer Syncer,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) BackupInterface {
	return &Service{
		conns:    conns,
		store:    store,
		archiver: archiver,
		remote:   remote,
		syncer:   syncer,
		remoteTo: conf.Remote.Name,
		logger:   logger,
		metrics:  metrics,
		gate:     newQuiesceGate(),
	}
}

// Due reports whether a backup should run: the interval has elapsed and the
// server either has players now or its roster changed after the last backup.
// Zero times stand for missing records.
func Due(now, lastBackup, lastRosterChange time.Time, online int, interval time.Duration) bool {
	if now.Before(lastBackup.Add(interval)) {
		return false
	}
	return online > 0 || !lastBackup.After(lastRosterChange)
}

func (s *Service) MaybeBackup(ctx context.Context, p console.Profile, now time.Time) error {
	if !p.Config.Backup.Enabled {
		return nil
	}

	last, _, err := storage.GetBackup(ctx, s.store, p.ID())
	if err != nil {
		return fmt.Errorf("%w: %s: load backup record: %v", models.ErrExternalAPI, p.ID(), err)
	}
	snap, _, err := storage.GetRoster(ctx, s.store, p.ID())
	if err != nil {
		return fmt.Errorf("%w: %s: load roster: %v", models.ErrExternalAPI, p.ID(), err)
	}

	if !Due(now, last.Time, snap.Time, len(snap.Players), p.Config.Backup.Interval) {
		s.logger.Debugf(providers.TypeBackup, "%s: backup not due (last %s, roster changed %s)", p.ID(), last.Time.Format(time.RFC3339), snap.Time.Format(time.RFC3339))
		return nil
	}
	return s.Run(ctx, p, now)
}

func (s *Service) Run(ctx context.Context, p console.Profile, now time.Time) (err error) {
	runID := uuid.NewString()
	started := time.Now()
	s.logger.Infof(providers.TypeBackup, "%s: backup %s started", p.ID(), runID)
	defer func() {
		s.metrics.ObserveBackupDuration(p.ID(), time.Since(started))
		if err != nil {
			s.logger.Errorf(providers.TypeBackup, "%s: backup %s failed: %s", p.ID(), runID, err)
		}
	}()

	filename := ArchiveName(p.ID(), now)
	localDir := p.Config.BackupLocalDir()
	dest := filepath.Join(localDir, filename)

	size, err := s.snapshot(ctx, p, dest)
	if err != nil {
		if errors.Is(err, ErrShuttingDown) {
			s.metrics.IncBackups(p.ID(), "skipped")
			return err
		}
		s.metrics.IncBackups(p.ID(), "archive_failed")
		return fmt.Errorf("archive %s: %w", p.Config.Backup.DataDir, err)
	}
	s.metrics.SetBackupSize(p.ID(), size)
	s.logger.Infof(providers.TypeBackup, "%s: backup %s wrote %s (%s)", p.ID(), runID, filename, humanize.Bytes(uint64(size)))

	var errs []error
	if err := s.record(ctx, p, filename, now); err != nil {
		errs = append(errs, err)
	}

	cutoff := now.Add(-p.Config.Backup.Retention)
	if target := s.remoteTarget(p); target != "" {
		remoteDir := RemotePath(target, p.ID())
		if err := s.remote.Copy(ctx, dest, RemotePath(remoteDir, filename)); err != nil {
			s.metrics.IncBackups(p.ID(), "upload_failed")
			s.logger.Warnf(providers.TypeBackup, "%s: upload of %s failed, keeping local copy: %s", p.ID(), filename, err)
		} else {
			s.logger.Infof(providers.TypeBackup, "%s: uploaded %s to %s", p.ID(), filename, remoteDir)
			if err := os.Remove(dest); err != nil {
				s.logger.Warnf(providers.TypeBackup, "%s: removing uploaded archive %s: %s", p.ID(), dest, err)
			}
		}

		removed, err := PruneRemote(ctx, s.remote, remoteDir, p.ID(), cutoff)
		s.reportPrune(p.ID(), "remote", removed, err)
	}

	removed, err := PruneLocal(localDir, p.ID(), cutoff)
	s.reportPrune(p.ID(), "local", removed, err)

	if len(errs) > 0 {
		s.metrics.IncBackups(p.ID(), "record_failed")
		return errors.Join(errs...)
	}
	s.metrics.IncBackups(p.ID(), "ok")
	s.logger.Infof(providers.TypeBackup, "%s: backup %s finished in %s", p.ID(), runID, time.Since(started).Round(time.Millisecond))
	return nil
}

// snapshot archives the data dir inside a quiesce window. Autosave is back on
// before it returns, whatever the archive outcome.
func (s *Service) snapshot(ctx context.Context, p console.Profile, dest string) (int64, error) {
	if !s.gate.enter() {
		return 0, ErrShuttingDown
	}
	defer s.gate.leave()

	if enable := s.quiesce(ctx, p); enable != nil {
		defer enable()
	}

	excludes := append(append([]string{}, DefaultExcludes...), p.Config.Backup.Excludes...)
	return s.archiver.CreateArchive(ctx, p.Config.Backup.DataDir, dest, excludes)
}

func (s *Service) Shutdown() {
	s.gate.closeAndWait()
}

// quiesce stops autosave and flushes the world when the console is reachable.
// The returned func re-enables autosave; it is nil when nothing was paused.
func (s *Service) quiesce(ctx context.Context, p console.Profile) func() {
	q := p.Strategy.Quiesce
	h, ok := s.conns.Ensure(ctx, p)
	if !ok {
		s.logger.Infof(providers.TypeBackup, "%s: console unreachable, archiving without quiesce", p.ID())
		return nil
	}

	var enable func()
	if q.Enable != "" {
		enable = func() {
			if _, err := s.conns.Exec(context.WithoutCancel(ctx), p, q.Enable); err != nil {
				s.logger.Errorf(providers.TypeBackup, "%s: re-enabling autosave: %s", p.ID(), err)
			}
		}
	}

	if q.Disable != "" {
		if _, err := h.Query(ctx, q.Disable); err != nil {
			s.logger.Warnf(providers.TypeBackup, "%s: disabling autosave: %s", p.ID(), err)
		}
	}
	if q.Flush != "" {
		if _, err := s.conns.Exec(ctx, p, q.Flush); err != nil {
			s.logger.Warnf(providers.TypeBackup, "%s: flushing world: %s", p.ID(), err)
		}
	}
	if err := s.syncer.SyncAll(); err != nil {
		s.logger.Warnf(providers.TypeBackup, "%s: sync: %s", p.ID(), err)
	}
	return enable
}

// record persists the archive as the latest backup. The stored time never
// moves backwards.
func (s *Service) record(ctx context.Context, p console.Profile, filename string, now time.Time) error {
	prev, _, err := storage.GetBackup(ctx, s.store, p.ID())
	if err != nil {
		return fmt.Errorf("%w: %s: load backup record: %v", models.ErrExternalAPI, p.ID(), err)
	}
	t := now
	if prev.Time.After(t) {
		t = prev.Time
	}
	if err := storage.PutBackup(ctx, s.store, models.BackupRecord{Game: p.ID(), Filename: filename, Time: t}); err != nil {
		return fmt.Errorf("%w: %s: store backup record: %v", models.ErrExternalAPI, p.ID(), err)
	}
	return nil
}

func (s *Service) remoteTarget(p console.Profile) string {
	if p.Config.Backup.Remote != "" {
		return p.Config.Backup.Remote
	}
	return s.remoteTo
}

func (s *Service) reportPrune(server, location string, removed []string, err error) {
	if len(removed) > 0 {
		s.metrics.AddPruned(server, location, len(removed))
		s.logger.Infof(providers.TypeBackup, "%s: pruned %d %s archive(s): %v", server, len(removed), location, removed)
	}
	if err != nil {
		s.logger.Warnf(providers.TypeBackup, "%s: pruning %s archives: %s", server, location, err)
	}
}
