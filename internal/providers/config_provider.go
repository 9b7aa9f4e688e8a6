package providers

import (
	"fmt"
	"gamewarden/internal/structures"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "127.0.0.1")
	v.SetDefault("webServer.port", 8087)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("state.path", "/var/lib/gamewarden/state.db")
	v.SetDefault("scheduler.rosterInterval", 10*time.Second)
	v.SetDefault("scheduler.backupInterval", time.Minute)
	v.SetDefault("scheduler.drainTimeout", 30*time.Second)
	v.SetDefault("discord.silentMessages", true)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 1)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config
	v := viper.New()

	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setDefaults(v)

	v.BindEnv("logger.level", "GW_LOG_LEVEL")
	v.BindEnv("scheduler.rosterInterval", "GW_ROSTER_INTERVAL")
	v.BindEnv("scheduler.backupInterval", "GW_BACKUP_INTERVAL")
	v.BindEnv("discord.token", "GW_DISCORD_TOKEN")
	v.BindEnv("remote.configFile", "GW_RCLONE_CONFIG")
	v.BindEnv("remote.name", "GW_RCLONE_REMOTE")
	v.BindEnv("state.path", "GW_STATE_PATH")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "GameWarden"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
