package providers

import (
	"fmt"
	"gamewarden/internal/structures"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type TypeEnum string

const (
	TypeApp    TypeEnum = "app"
	TypePoll   TypeEnum = "poll"
	TypeNotify TypeEnum = "notify"
	TypeBackup TypeEnum = "backup"
	TypeHTTP   TypeEnum = "http"
)

const logFileName = "gamewarden.log"

type Logger interface {
	Errorf(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

type LogProvider struct {
	logger zerolog.Logger
	file   *lumberjack.Logger
}

func (l *LogProvider) event(level zerolog.Level, t TypeEnum) *zerolog.Event {
	return l.logger.WithLevel(level).Str("type", string(t))
}

func (l *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	l.event(zerolog.ErrorLevel, t).Msgf(format, args...)
}

func (l *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	l.event(zerolog.WarnLevel, t).Msgf(format, args...)
}

func (l *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	l.event(zerolog.DebugLevel, t).Msgf(format, args...)
}

func (l *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	l.event(zerolog.InfoLevel, t).Msgf(format, args...)
}

// Fatalf logs and exits. Only startup code should call it.
func (l *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	l.event(zerolog.FatalLevel, t).Msgf(format, args...)
	l.Close()
	os.Exit(1)
}

func (l *LogProvider) Close() {
	if l.file != nil {
		_ = l.file.Close()
	}
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Logger.Level, err)
	}

	info, err := os.Stat(conf.Logger.Dir)
	if err != nil {
		return nil, fmt.Errorf("log directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("log directory: %s is not a directory", conf.Logger.Dir)
	}

	path := filepath.Join(conf.Logger.Dir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, os.FileMode(conf.Logger.Mode))
	if err != nil {
		return nil, err
	}
	_ = f.Close()

	file := &lumberjack.Logger{
		Filename:   path,
		LocalTime:  true,
		MaxSize:    10,
		MaxBackups: 10,
		Compress:   true,
	}

	var out io.Writer = file
	if conf.Debug {
		out = zerolog.MultiLevelWriter(file, zerolog.ConsoleWriter{Out: os.Stderr})
		level = zerolog.DebugLevel
	}

	return &LogProvider{
		logger: zerolog.New(out).Level(level).With().Timestamp().Logger(),
		file:   file,
	}, nil
}
