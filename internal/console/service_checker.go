package console

import (
	"context"
	"errors"
	"fmt"
	"gamewarden/internal/structures"
	"os/exec"
	"strings"
)

// ServiceChecker reports whether the OS service backing a game server is running.
type ServiceChecker interface {
	IsActive(ctx context.Context, service string) (bool, error)
}

type runFunc func(ctx context.Context, name string, args ...string) error

// SystemctlChecker asks systemd, optionally on a remote host over ssh.
type SystemctlChecker struct {
	ssh structures.SSHConfig
	run runFunc
}

func NewSystemctlChecker(conf *structures.Config) ServiceChecker {
	return &SystemctlChecker{ssh: conf.SSH, run: runCommand}
}

func (c *SystemctlChecker) IsActive(ctx context.Context, service string) (bool, error) {
	name, args := c.command("systemctl", "is-active", "--quiet", service)
	err := c.run(ctx, name, args...)
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// ssh itself exits 255 when the remote host cannot be reached
		if c.ssh.Host != "" && exitErr.ExitCode() == 255 {
			return false, fmt.Errorf("ssh %s: %w", c.ssh.Host, err)
		}
		return false, nil
	}
	return false, err
}

func (c *SystemctlChecker) command(name string, args ...string) (string, []string) {
	if c.ssh.Host == "" {
		return name, args
	}
	bin := c.ssh.Binary
	if bin == "" {
		bin = "ssh"
	}
	sshArgs := []string{c.ssh.Host}
	if c.ssh.Key != "" {
		sshArgs = append(sshArgs, "-i", c.ssh.Key)
	}
	sshArgs = append(sshArgs, "-o", "BatchMode=yes", name+" "+strings.Join(args, " "))
	return bin, sshArgs
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
