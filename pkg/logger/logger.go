package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/support-triage-poc/server/internal/core"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	// File enables a rotating JSON log file in addition to stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

func safe(opts ...LoggerOpts) *LoggerOpts {
	if len(opts) == 0 {
		return DefaultLoggerOpts
	}
	return &opts[0]
}

func Init(opts ...LoggerOpts) {
	o := safe(opts...)

	var out io.Writer = os.Stderr
	level := zerolog.InfoLevel
	if !o.Environment.IsProduction() {
		out = zerolog.NewConsoleWriter()
		level = zerolog.DebugLevel
	}
	if o.File != "" {
		out = zerolog.MultiLevelWriter(out, fileWriter(o))
	}

	ctx := zerolog.New(out).With().Timestamp()
	if !o.Environment.IsProduction() {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger().Level(level)
}

func fileWriter(o *LoggerOpts) io.Writer {
	maxSize := o.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	maxBackups := o.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	return &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}

// Logger returns the process-wide logger, e.g. for handing to middleware.
func Logger() *zerolog.Logger {
	return &log.Logger
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Panic() *zerolog.Event {
	return log.Panic()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
