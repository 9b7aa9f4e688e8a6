package watcher

import (
	"context"
	"fmt"
	"gamewarden/internal/backup"
	"gamewarden/internal/console"
	"gamewarden/internal/providers"
	"gamewarden/internal/structures"
	"gamewarden/internal/watcher/interfaces"
	"runtime/debug"
	"sync"
	"time"

	"github.com/roylee0704/gron"
	"go.uber.org/atomic"
)

const defaultDrainTimeout = 30 * time.Second

type Scheduler struct {
	config   *structures.Config
	logger   providers.Logger
	pipeline *Pipeline
	backups  backup.BackupInterface
	profiles []console.Profile
	cron     *gron.Cron

	rosterLocks *KeyedLock
	backupLocks *KeyedLock

	// spawnMu orders inflight.Add against the Wait in Stop.
	spawnMu  sync.Mutex
	inflight sync.WaitGroup
	draining *atomic.Bool

	now func() time.Time
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Scheduler.RosterInterval), func() {
		s.pollAll()
	})
	s.cron.AddFunc(gron.Every(s.config.Scheduler.BackupInterval), func() {
		s.backupAll()
	})

	s.cron.Start()
	s.logger.Infof(providers.TypeApp, "Scheduler started for %d server(s): roster every %s, backups checked every %s",
		len(s.profiles), s.config.Scheduler.RosterInterval, s.config.Scheduler.BackupInterval)

	s.pollAll()
}

// Stop halts the timers and waits for running ticks until ctx or the drain
// timeout expires, whichever comes first. Backups still inside their quiesce
// window are always waited for.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron != nil {
		s.cron.Stop()
	}

	s.spawnMu.Lock()
	s.draining.Store(true)
	s.spawnMu.Unlock()

	timeout := s.config.Scheduler.DrainTimeout
	if timeout <= 0 {
		timeout = defaultDrainTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		s.logger.Infof(providers.TypeApp, "Scheduler drained")
	case <-ctx.Done():
		err = fmt.Errorf("scheduler drain: %w", ctx.Err())
		s.logger.Warnf(providers.TypeApp, "Drain timed out, waiting for paused autosave to be re-enabled")
	}

	// no bound: blocks until every paused server has autosave back on
	s.backups.Shutdown()
	return err
}

// RunOnce runs one roster tick per server and waits for all of them.
func (s *Scheduler) RunOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range s.profiles {
		release, ok := s.rosterLocks.TryLock(p.ID())
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer release()
			s.runTick("roster", p, func() error {
				return s.pipeline.Tick(ctx, p, s.now())
			})
		}()
	}
	wg.Wait()
}

// BackupNow runs a backup of server immediately, regardless of schedule.
func (s *Scheduler) BackupNow(ctx context.Context, server string) error {
	for _, p := range s.profiles {
		if p.ID() != server {
			continue
		}
		s.spawnMu.Lock()
		if s.draining.Load() {
			s.spawnMu.Unlock()
			return fmt.Errorf("scheduler is shutting down")
		}
		release, ok := s.backupLocks.TryLock(server)
		if !ok {
			s.spawnMu.Unlock()
			return fmt.Errorf("backup of %s already running", server)
		}
		s.inflight.Add(1)
		s.spawnMu.Unlock()

		defer s.inflight.Done()
		defer release()
		return s.backups.Run(ctx, p, s.now())
	}
	return fmt.Errorf("unknown server %q", server)
}

func (s *Scheduler) pollAll() {
	for _, p := range s.profiles {
		s.spawn("roster", s.rosterLocks, p, func() error {
			return s.pipeline.Tick(context.Background(), p, s.now())
		})
	}
}

func (s *Scheduler) backupAll() {
	for _, p := range s.profiles {
		if !p.Config.Backup.Enabled {
			continue
		}
		s.spawn("backup", s.backupLocks, p, func() error {
			return s.backups.MaybeBackup(context.Background(), p, s.now())
		})
	}
}

// spawn starts fn for p unless the previous tick of the same kind is still
// running for that server, in which case this firing is dropped.
func (s *Scheduler) spawn(kind string, locks *KeyedLock, p console.Profile, fn func() error) {
	s.spawnMu.Lock()
	defer s.spawnMu.Unlock()
	if s.draining.Load() {
		return
	}

	release, ok := locks.TryLock(p.ID())
	if !ok {
		s.logger.Debugf(providers.TypeApp, "%s: previous %s tick still running, skipping", p.ID(), kind)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer release()
		s.runTick(kind, p, fn)
	}()
}

func (s *Scheduler) runTick(kind string, p console.Profile, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf(providers.TypeApp, "%s: %s tick panicked: %v\n%s", p.ID(), kind, r, debug.Stack())
		}
	}()
	if err := fn(); err != nil {
		s.logger.Errorf(logType(kind), "%s: %s tick: %s", p.ID(), kind, err)
	}
}

func logType(kind string) providers.TypeEnum {
	if kind == "backup" {
		return providers.TypeBackup
	}
	return providers.TypePoll
}

func NewScheduler(
	config *structures.Config,
	logger providers.Logger,
	pipeline *Pipeline,
	backups backup.BackupInterface,
	profiles []console.Profile,
) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		pipeline:    pipeline,
		backups:     backups,
		profiles:    profiles,
		rosterLocks: NewKeyedLock(),
		backupLocks: NewKeyedLock(),
		draining:    atomic.NewBool(false),
		now:         time.Now,
	}
}
