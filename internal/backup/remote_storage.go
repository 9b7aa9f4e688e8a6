package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"gamewarden/internal/structures"
	"os/exec"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// rclone exits with 3 when the listed directory does not exist.
const rcloneDirNotFound = 3

type RemoteEntry struct {
	Name    string    `json:"Name"`
	Size    int64     `json:"Size"`
	ModTime time.Time `json:"ModTime"`
	IsDir   bool      `json:"IsDir"`
}

// RemoteStorage is an object store addressed by "<remote>/<path>" strings.
type RemoteStorage interface {
	Copy(ctx context.Context, localPath, remotePath string) error
	List(ctx context.Context, remoteDir string) ([]RemoteEntry, error)
	Delete(ctx context.Context, remotePath string) error
}

type outputFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Rclone drives the rclone CLI.
type Rclone struct {
	binary     string
	configFile string
	run        outputFunc
}

func NewRclone(conf *structures.Config) RemoteStorage {
	bin := conf.Remote.Binary
	if bin == "" {
		bin = "rclone"
	}
	return &Rclone{binary: bin, configFile: conf.Remote.ConfigFile, run: commandOutput}
}

func (r *Rclone) Copy(ctx context.Context, localPath, remotePath string) error {
	_, err := r.exec(ctx, "copyto", localPath, remotePath)
	return err
}

func (r *Rclone) List(ctx context.Context, remoteDir string) ([]RemoteEntry, error) {
	out, err := r.exec(ctx, "lsjson", "--files-only", remoteDir)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == rcloneDirNotFound {
			return nil, nil
		}
		return nil, err
	}
	var entries []RemoteEntry
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, fmt.Errorf("rclone lsjson %s: %w", remoteDir, err)
	}
	return entries, nil
}

func (r *Rclone) Delete(ctx context.Context, remotePath string) error {
	_, err := r.exec(ctx, "deletefile", remotePath)
	return err
}

func (r *Rclone) exec(ctx context.Context, args ...string) ([]byte, error) {
	if r.configFile != "" {
		args = append([]string{"--config", r.configFile}, args...)
	}
	return r.run(ctx, r.binary, args...)
}

func commandOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// RemotePath joins path segments onto an rclone remote such as "b2:" or
// "b2:bucket/backups".
func RemotePath(remote string, parts ...string) string {
	remote = strings.TrimRight(remote, "/")
	if strings.HasSuffix(remote, ":") {
		return remote + strings.Join(parts, "/")
	}
	return remote + "/" + strings.Join(parts, "/")
}
