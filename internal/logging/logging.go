package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hackgods/hospital-scheduling/internal/config"
)

// Init configures the global zerolog logger for a binary. Dev environments get
// a console writer; everything else writes JSON. LOG_FILE adds a rotating file.
func Init(service string, cfg config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLevel(cfg.LogLevel))

	var out io.Writer = os.Stdout
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	if cfg.LogFile != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}

	ctx := zerolog.New(out).With().
		Timestamp().
		Str("service", service).
		Str("env", cfg.Env)
	if cfg.IsDev() {
		ctx = ctx.Caller()
	}

	log.Logger = ctx.Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return log.Logger
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
