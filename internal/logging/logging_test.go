package logging

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/hackgods/hospital-scheduling/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"info":    zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestInitSetsContextLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	cfg := config.Config{
		Env:      "prod",
		LogLevel: "warn",
		LogFile:  filepath.Join(t.TempDir(), "api.log"),
	}
	Init("api-server", cfg)

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	assert.NotNil(t, zerolog.DefaultContextLogger)
}
