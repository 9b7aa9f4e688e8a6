package backup

import (
	"strings"
	"time"
)

const (
	archiveExt    = ".tar.zst"
	archiveLayout = "20060102T150405Z"
)

// ArchiveName returns "<server>_<utc timestamp>.tar.zst".
func ArchiveName(server string, t time.Time) string {
	return server + "_" + t.UTC().Format(archiveLayout) + archiveExt
}

// ParseArchiveName extracts the timestamp of an archive that belongs to server.
func ParseArchiveName(server, name string) (time.Time, bool) {
	stamp, ok := strings.CutPrefix(name, server+"_")
	if !ok {
		return time.Time{}, false
	}
	stamp, ok = strings.CutSuffix(stamp, archiveExt)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(archiveLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
