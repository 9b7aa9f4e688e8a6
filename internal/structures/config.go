package structures

import "time"

const (
	KindMinecraft = "minecraft"
	KindTerraria  = "terraria"
)

type Server struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `mapstructure:"mode" validate:"required|uint"`
	Dir   string `mapstructure:"dir" validate:"required|unixPath"`
}

type StateConfig struct {
	Path string `mapstructure:"path" validate:"required|unixPath"`
}

type SchedulerConfig struct {
	RosterInterval time.Duration `mapstructure:"rosterInterval" validate:"required|min:1"`
	BackupInterval time.Duration `mapstructure:"backupInterval" validate:"required|min:1"`
	DrainTimeout   time.Duration `mapstructure:"drainTimeout"`
}

type DiscordConfig struct {
	Token          string `mapstructure:"token" validate:"required"`
	UserAgent      string `mapstructure:"userAgent"`
	SilentMessages bool   `mapstructure:"silentMessages"`
}

// RemoteConfig points at an rclone remote. An empty Name disables uploads.
type RemoteConfig struct {
	Name       string `mapstructure:"name"`
	ConfigFile string `mapstructure:"configFile"`
	Binary     string `mapstructure:"binary"`
}

// SSHConfig routes service checks through ssh when Host is set.
type SSHConfig struct {
	Host   string `mapstructure:"host"`
	Key    string `mapstructure:"key"`
	Binary string `mapstructure:"binary"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Size    int  `mapstructure:"size"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type BackupConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	DataDir   string        `mapstructure:"dataDir"`
	LocalDir  string        `mapstructure:"localDir"`
	Interval  time.Duration `mapstructure:"interval"`
	Retention time.Duration `mapstructure:"retention"`
	Remote    string        `mapstructure:"remote"`
	Excludes  []string      `mapstructure:"excludes"`
}

// ServerConfig is one managed game server. Immutable once loaded.
type ServerConfig struct {
	ID        string        `mapstructure:"id" validate:"required|regexp:^[a-z0-9_-]+$"`
	Kind      string        `mapstructure:"kind" validate:"required|in:minecraft,terraria"`
	Address   string        `mapstructure:"address" validate:"required"`
	Password  string        `mapstructure:"password"`
	Token     string        `mapstructure:"token"`
	Service   string        `mapstructure:"service" validate:"required"`
	ChannelID string        `mapstructure:"channelId" validate:"required"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Backup    BackupConfig  `mapstructure:"backup"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server          `mapstructure:"webServer"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	State     StateConfig     `mapstructure:"state"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	SSH       SSHConfig       `mapstructure:"ssh"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Servers   []ServerConfig  `mapstructure:"servers"`

	// Rejected holds per-server validation failures. Those servers are never scheduled.
	Rejected []error `mapstructure:"-"`
}

// BackupLocalDir is where archives are written before upload.
func (s ServerConfig) BackupLocalDir() string {
	if s.Backup.LocalDir != "" {
		return s.Backup.LocalDir
	}
	return s.Backup.DataDir + "/backups"
}
