package backup

import (
	"archive/tar"
	"context"
	"fmt"
	"gamewarden/internal/backup/interfaces"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExcludes are volatile or regenerated paths that never go into an archive.
var DefaultExcludes = []string{
	"*.jar",
	"cache",
	".cache",
	"logs",
	"*.log",
	"*.tmp",
	"tmp",
	"backups",
	"server.properties",
	"*.lock",
}

type Archiver interface {
	// CreateArchive writes a compressed tar of srcDir to dest and returns the
	// archive size in bytes. dest only appears once it is complete.
	CreateArchive(ctx context.Context, srcDir, dest string, excludes []string) (int64, error)
}

type TarArchiver struct {
	compressor interfaces.CompressorInterface
}

func NewTarArchiver(compressor interfaces.CompressorInterface) Archiver {
	return &TarArchiver{compressor: compressor}
}

func (a *TarArchiver) CreateArchive(ctx context.Context, srcDir, dest string, excludes []string) (int64, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", srcDir)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, err
	}

	tmpFile := dest + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return 0, err
	}

	if err := a.write(ctx, file, srcDir, dest, excludes); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return 0, err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return 0, err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpFile)
		return 0, err
	}
	if err := os.Rename(tmpFile, dest); err != nil {
		os.Remove(tmpFile)
		return 0, err
	}

	st, err := os.Stat(dest)
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

func (a *TarArchiver) write(ctx context.Context, w io.Writer, srcDir, dest string, excludes []string) error {
	zw, err := a.compressor.NewWriter(w)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)

	absDest, _ := filepath.Abs(dest)
	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absDest || abs == absDest+".tmp" || excluded(rel, excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return addEntry(tw, path, filepath.ToSlash(rel), d)
	})

	if err := tw.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if err := zw.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	return walkErr
}

func addEntry(tw *tar.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	} else if !info.Mode().IsRegular() && !info.IsDir() {
		// sockets, pipes and devices
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.CopyN(tw, f, hdr.Size)
	return err
}

// excluded matches every pattern against the base name and against the
// slash separated relative path.
func excluded(rel string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	base := rel[strings.LastIndexByte(rel, '/')+1:]
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
	}
	return false
}
