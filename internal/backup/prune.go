package backup

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// expired reports archive names of server older than cutoff. Names that do not
// carry a parseable timestamp are never returned.
func expired(server string, names []string, cutoff time.Time) []string {
	var out []string
	for _, n := range names {
		t, ok := ParseArchiveName(server, n)
		if ok && t.Before(cutoff) {
			out = append(out, n)
		}
	}
	return out
}

// PruneLocal removes expired archives from dir and returns the removed names.
func PruneLocal(dir, server string, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}

	var removed []string
	var firstErr error
	for _, n := range expired(server, names, cutoff) {
		if err := os.Remove(filepath.Join(dir, n)); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed = append(removed, n)
	}
	return removed, firstErr
}

// PruneRemote removes expired archives from remoteDir and returns the removed names.
func PruneRemote(ctx context.Context, rs RemoteStorage, remoteDir, server string, cutoff time.Time) ([]string, error) {
	entries, err := rs.List(ctx, remoteDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir {
			names = append(names, e.Name)
		}
	}

	var removed []string
	var firstErr error
	for _, n := range expired(server, names, cutoff) {
		if err := rs.Delete(ctx, RemotePath(remoteDir, n)); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed = append(removed, n)
	}
	return removed, firstErr
}
