package backup

import "golang.org/x/sys/unix"

// Syncer flushes dirty filesystem buffers before archiving.
type Syncer interface {
	SyncAll() error
}

type unixSyncer struct{}

func NewSyncer() Syncer {
	return unixSyncer{}
}

func (unixSyncer) SyncAll() error {
	unix.Sync()
	return nil
}
