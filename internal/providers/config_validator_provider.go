package providers

import (
	"errors"
	"fmt"
	"gamewarden/internal/models"
	"gamewarden/internal/structures"
	"strings"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

// Validate checks the global settings and then every server on its own.
// Invalid servers are moved to conf.Rejected; an error is returned only when
// the global settings are invalid or no server is left.
func (cv *CnfValidator) Validate() error {
	global := *cv.conf
	global.Servers = nil
	v := validate.Struct(&global)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", models.ErrFatalConfig, v.Errors.Error())
	}

	valid := make([]structures.ServerConfig, 0, len(cv.conf.Servers))
	seen := make(map[string]struct{}, len(cv.conf.Servers))
	for i, s := range cv.conf.Servers {
		err := validateServer(s)
		if err == nil {
			if _, dup := seen[s.ID]; dup {
				err = errors.New("duplicate id")
			}
		}
		if err != nil {
			cv.conf.Rejected = append(cv.conf.Rejected, fmt.Errorf("%w: servers[%d] %q: %v", models.ErrFatalConfig, i, s.ID, err))
			continue
		}
		seen[s.ID] = struct{}{}
		valid = append(valid, s)
	}
	cv.conf.Servers = valid

	if len(valid) == 0 {
		return fmt.Errorf("%w: no valid server configured", models.ErrFatalConfig)
	}
	return nil
}

func validateServer(s structures.ServerConfig) error {
	v := validate.Struct(&s)
	if !v.Validate() {
		return v.Errors
	}

	switch s.Kind {
	case structures.KindMinecraft:
		if s.Password == "" {
			return errors.New("rcon password is required")
		}
	case structures.KindTerraria:
		if s.Token == "" {
			return errors.New("tshock token is required")
		}
		if !strings.HasPrefix(s.Address, "http://") && !strings.HasPrefix(s.Address, "https://") {
			return errors.New("tshock address must be an http(s) url")
		}
	}

	if b := s.Backup; b.Enabled {
		switch {
		case b.DataDir == "":
			return errors.New("backup.dataDir is required")
		case b.Interval <= 0:
			return errors.New("backup.interval must be positive")
		case b.Retention <= 0:
			return errors.New("backup.retention must be positive")
		}
	}
	return nil
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}
