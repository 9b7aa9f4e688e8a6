package backup

import (
	"context"
	"errors"
	"gamewarden/internal/console"
	"gamewarden/internal/models"
	"gamewarden/internal/providers"
	"gamewarden/internal/storage"
	"gamewarden/internal/structures"
	"gamewarden/internal/testutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type consoleLog struct {
	mu       sync.Mutex
	commands []string
}

func (c *consoleLog) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, s)
}

func (c *consoleLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.commands...)
}

type recordingSession struct{ log *consoleLog }

func (s *recordingSession) Query(_ context.Context, cmd string) (string, error) {
	s.log.add(cmd)
	return "ok", nil
}
func (s *recordingSession) Close() error { return nil }

type activeServices bool

func (a activeServices) IsActive(context.Context, string) (bool, error) { return bool(a), nil }

type fakeArchiver struct {
	log     *consoleLog
	err     error
	dest    string
	started chan struct{}
	release chan struct{}
}

func (f *fakeArchiver) CreateArchive(_ context.Context, _, dest string, _ []string) (int64, error) {
	f.log.add("archive")
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return 0, f.err
	}
	f.dest = dest
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, err
	}
	return 4, os.WriteFile(dest, []byte("data"), 0644)
}

type fakeSyncer struct{ log *consoleLog }

func (f fakeSyncer) SyncAll() error {
	f.log.add("sync")
	return nil
}

type fakeRemote struct {
	mu      sync.Mutex
	files   map[string]bool
	copyErr error
	log     *consoleLog
}

func newFakeRemote(paths ...string) *fakeRemote {
	r := &fakeRemote{files: make(map[string]bool)}
	for _, p := range paths {
		r.files[p] = true
	}
	return r
}

func (r *fakeRemote) Copy(_ context.Context, _, remotePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.log != nil {
		r.log.add("upload")
	}
	if r.copyErr != nil {
		return r.copyErr
	}
	r.files[remotePath] = true
	return nil
}

func (r *fakeRemote) List(_ context.Context, dir string) ([]RemoteEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RemoteEntry
	for p := range r.files {
		if name, ok := strings.CutPrefix(p, dir+"/"); ok {
			out = append(out, RemoteEntry{Name: name})
		}
	}
	return out, nil
}

func (r *fakeRemote) Delete(_ context.Context, p string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, p)
	return nil
}

func (r *fakeRemote) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for p := range r.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type fixture struct {
	svc      BackupInterface
	store    *storage.MemoryStore
	archiver *fakeArchiver
	remote   *fakeRemote
	log      *consoleLog
	profile  console.Profile
}

func newFixture(t *testing.T, active bool) *fixture {
	t.Helper()
	log := &consoleLog{}
	conf := &structures.Config{Remote: structures.RemoteConfig{Name: "b2:games"}}
	metrics := providers.NewNoopMetrics()
	conns := console.NewConnectionManager(activeServices(active), &testutil.MockLogger{}, metrics)

	f := &fixture{
		store:    storage.NewMemoryStore(),
		archiver: &fakeArchiver{log: log},
		remote:   newFakeRemote(),
		log:      log,
		profile: console.Profile{
			Config: structures.ServerConfig{
				ID: "mc",
				Backup: structures.BackupConfig{
					Enabled:   true,
					DataDir:   t.TempDir(),
					LocalDir:  t.TempDir(),
					Interval:  time.Hour,
					Retention: 7 * 24 * time.Hour,
				},
			},
			Strategy: &console.Strategy{
				Kind: structures.KindMinecraft,
				Dial: func(context.Context, structures.ServerConfig) (console.Session, error) {
					return &recordingSession{log: log}, nil
				},
				Quiesce: console.Quiesce{Disable: "save-off", Flush: "save-all flush", Enable: "save-on"},
			},
		},
	}
	f.remote.log = log
	f.svc = NewService(conf, conns, f.store, f.archiver, f.remote, fakeSyncer{log: log}, &testutil.MockLogger{}, metrics)
	return f
}

func TestDue(t *testing.T) {
	last := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	interval := time.Hour
	changedBefore := last.Add(-time.Minute)
	changedAfter := last.Add(time.Minute)

	assert.False(t, Due(last.Add(interval-time.Second), last, changedAfter, 3, interval))
	assert.True(t, Due(last.Add(interval), last, changedAfter, 3, interval))
	assert.True(t, Due(last.Add(interval+time.Second), last, changedAfter, 3, interval))

	// nobody online and nothing changed since the last backup
	assert.False(t, Due(last.Add(2*interval), last, changedBefore, 0, interval))
	// nobody online but the roster changed afterwards
	assert.True(t, Due(last.Add(2*interval), last, changedAfter, 0, interval))
	// equal times count as a change
	assert.True(t, Due(last.Add(2*interval), last, last, 0, interval))
	// no records at all
	assert.True(t, Due(last, time.Time{}, time.Time{}, 0, interval))
}

func TestMaybeBackup_SkipsWhenNotDue(t *testing.T) {
	f := newFixture(t, true)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, storage.PutBackup(context.Background(), f.store, models.BackupRecord{Game: "mc", Time: now.Add(-30 * time.Minute)}))

	require.NoError(t, f.svc.MaybeBackup(context.Background(), f.profile, now))

	assert.Empty(t, f.log.all())
}

func TestMaybeBackup_Disabled(t *testing.T) {
	f := newFixture(t, true)
	f.profile.Config.Backup.Enabled = false

	require.NoError(t, f.svc.MaybeBackup(context.Background(), f.profile, time.Now()))
	assert.Empty(t, f.log.all())
}

func TestRun_QuiesceOrderAndUpload(t *testing.T) {
	f := newFixture(t, true)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, f.svc.MaybeBackup(context.Background(), f.profile, now))

	// autosave is back on before the upload starts
	assert.Equal(t, []string{"save-off", "save-all flush", "sync", "archive", "save-on", "upload"}, f.log.all())
	assert.Equal(t, []string{"b2:games/mc/mc_20260501T120000Z.tar.zst"}, f.remote.names())
	// uploaded, so the local copy is gone
	assert.NoFileExists(t, f.archiver.dest)

	rec, ok, err := storage.GetBackup(context.Background(), f.store, "mc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "mc_20260501T120000Z.tar.zst", rec.Filename)
	assert.True(t, now.Equal(rec.Time))
}

func TestRun_AutosaveReenabledWhenArchiveFails(t *testing.T) {
	f := newFixture(t, true)
	f.archiver.err = errors.New("disk full")

	err := f.svc.Run(context.Background(), f.profile, time.Now())

	require.Error(t, err)
	cmds := f.log.all()
	assert.Equal(t, "save-on", cmds[len(cmds)-1])
	assert.Equal(t, 0, f.store.Len())
}

func TestRun_AutosaveReenabledBeforeFailedUpload(t *testing.T) {
	f := newFixture(t, true)
	f.remote.copyErr = errors.New("quota exceeded")

	require.NoError(t, f.svc.Run(context.Background(), f.profile, time.Now()))

	assert.Equal(t, []string{"save-off", "save-all flush", "sync", "archive", "save-on", "upload"}, f.log.all())
}

func TestShutdown_WaitsForAutosaveReenable(t *testing.T) {
	f := newFixture(t, true)
	f.archiver.started = make(chan struct{})
	f.archiver.release = make(chan struct{})

	runDone := make(chan error, 1)
	go func() { runDone <- f.svc.Run(context.Background(), f.profile, time.Now()) }()
	<-f.archiver.started

	shutdownDone := make(chan struct{})
	go func() {
		f.svc.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		t.Fatal("Shutdown returned while autosave was still off")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.archiver.release)
	<-shutdownDone
	assert.Contains(t, f.log.all(), "save-on")
	require.NoError(t, <-runDone)
}

func TestShutdown_RefusesNewBackups(t *testing.T) {
	f := newFixture(t, true)
	f.svc.Shutdown()

	err := f.svc.Run(context.Background(), f.profile, time.Now())

	assert.ErrorIs(t, err, ErrShuttingDown)
	assert.Empty(t, f.log.all())
	assert.Equal(t, 0, f.store.Len())
}

func TestRun_NoQuiesceWhenOffline(t *testing.T) {
	f := newFixture(t, false)

	require.NoError(t, f.svc.Run(context.Background(), f.profile, time.Now()))

	assert.Equal(t, []string{"archive", "upload"}, f.log.all())
}

func TestRun_UploadFailureKeepsLocalArchive(t *testing.T) {
	f := newFixture(t, true)
	f.remote.copyErr = errors.New("quota exceeded")

	require.NoError(t, f.svc.Run(context.Background(), f.profile, time.Now()))

	assert.FileExists(t, f.archiver.dest)
	_, ok, err := storage.GetBackup(context.Background(), f.store, "mc")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun_RecordTimeNeverMovesBackwards(t *testing.T) {
	f := newFixture(t, true)
	later := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, storage.PutBackup(context.Background(), f.store, models.BackupRecord{Game: "mc", Time: later}))

	require.NoError(t, f.svc.Run(context.Background(), f.profile, later.Add(-time.Hour)))

	rec, _, _ := storage.GetBackup(context.Background(), f.store, "mc")
	assert.True(t, later.Equal(rec.Time))
}

func TestRun_PrunesExpiredArchives(t *testing.T) {
	f := newFixture(t, true)
	now := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	old := ArchiveName("mc", now.Add(-10*24*time.Hour))
	recent := ArchiveName("mc", now.Add(-2*24*time.Hour))
	fresh := ArchiveName("mc", now.Add(-time.Hour))
	for _, n := range []string{old, recent, fresh, "mc_garbage.tar.zst"} {
		f.remote.files["b2:games/mc/"+n] = true
		writeFile(t, filepath.Join(f.profile.Config.Backup.LocalDir, n), "x")
	}

	require.NoError(t, f.svc.Run(context.Background(), f.profile, now))

	current := ArchiveName("mc", now)
	assert.ElementsMatch(t, []string{
		"b2:games/mc/" + recent,
		"b2:games/mc/" + fresh,
		"b2:games/mc/mc_garbage.tar.zst",
		"b2:games/mc/" + current,
	}, f.remote.names())

	local, err := os.ReadDir(f.profile.Config.Backup.LocalDir)
	require.NoError(t, err)
	var names []string
	for _, e := range local {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{recent, fresh, "mc_garbage.tar.zst"}, names)
}

func TestPruneLocal_MissingDir(t *testing.T) {
	removed, err := PruneLocal(filepath.Join(t.TempDir(), "none"), "mc", time.Now())
	assert.NoError(t, err)
	assert.Empty(t, removed)
}

func TestRemotePath(t *testing.T) {
	assert.Equal(t, "b2:mc/a.tar.zst", RemotePath("b2:", "mc", "a.tar.zst"))
	assert.Equal(t, "b2:bucket/mc", RemotePath("b2:bucket/", "mc"))
}
