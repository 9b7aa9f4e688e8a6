package console

import (
	"context"
	"fmt"
	"gamewarden/internal/models"
	"gamewarden/internal/structures"
	"time"
)

const defaultTimeout = 5 * time.Second

// Session is one open control channel to a game server console.
// Implementations need not be safe for concurrent use.
type Session interface {
	Query(ctx context.Context, command string) (string, error)
	Close() error
}

// PlayerLister is implemented by sessions that can report the roster without
// a text command.
type PlayerLister interface {
	Players(ctx context.Context) ([]string, error)
}

type DialFunc func(ctx context.Context, conf structures.ServerConfig) (Session, error)

// Quiesce holds the console commands used around a backup. Empty commands are skipped.
type Quiesce struct {
	Disable string
	Flush   string
	Enable  string
}

// Strategy carries everything that differs between game kinds.
type Strategy struct {
	Kind string
	Dial DialFunc
	// ListCommand is sent when the session is not a PlayerLister. Its reply is
	// expected as "<anything>: name1, name2". Kinds whose sessions list players
	// themselves leave it empty.
	ListCommand string
	Quiesce     Quiesce
}

var strategies = map[string]*Strategy{
	structures.KindMinecraft: {
		Kind:        structures.KindMinecraft,
		Dial:        DialRCON,
		ListCommand: "list",
		Quiesce: Quiesce{
			Disable: "save-off",
			Flush:   "save-all flush",
			Enable:  "save-on",
		},
	},
	structures.KindTerraria: {
		Kind: structures.KindTerraria,
		Dial: DialTShock,
		Quiesce: Quiesce{
			Flush: "/save",
		},
	},
}

// Profile is a loaded server configuration bound to its game strategy.
type Profile struct {
	Config   structures.ServerConfig
	Strategy *Strategy
}

func (p Profile) ID() string          { return p.Config.ID }
func (p Profile) ServiceName() string { return p.Config.Service }

// NewProfile binds a server config to the strategy registered for its kind.
func NewProfile(conf structures.ServerConfig) (Profile, error) {
	s, ok := strategies[conf.Kind]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s: unknown kind %q", models.ErrFatalConfig, conf.ID, conf.Kind)
	}
	return Profile{Config: conf, Strategy: s}, nil
}

// NewProfiles builds a profile per configured server, in config order.
func NewProfiles(conf *structures.Config) ([]Profile, error) {
	profiles := make([]Profile, 0, len(conf.Servers))
	for _, sc := range conf.Servers {
		p, err := NewProfile(sc)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func timeout(conf structures.ServerConfig) time.Duration {
	if conf.Timeout > 0 {
		return conf.Timeout
	}
	return defaultTimeout
}
