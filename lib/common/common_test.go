package common

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/db"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logger.LogLevel
		wantErr bool
	}{
		{"debug", logger.DEBUG, false},
		{"INFO", logger.INFO, false},
		{"warn", logger.WARNING, false},
		{"warning", logger.WARNING, false},
		{" error ", logger.ERROR, false},
		{"verbose", logger.INFO, true},
		{"", logger.INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := &ttlkvLogger{
		name:   "birch",
		level:  logger.INFO,
		logger: log.New(&buf, "", 0),
	}

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Warningf("warned")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "INFO  | birch           | shown 2", lines[0])
	assert.Equal(t, "WARN  | birch           | warned", lines[1])

	buf.Reset()
	l.SetLevel(logger.DEBUG)
	l.Debugf("now visible")
	assert.Contains(t, buf.String(), "DEBUG | birch")
}

func TestInitLoggersRejectsInvalidLevel(t *testing.T) {
	assert.Error(t, InitLoggers("loud"))
	assert.NoError(t, InitLoggers("warn"))
}

func TestInitLoggersRepeatedly(t *testing.T) {
	for _, level := range []string{"info", "debug", "error", "info"} {
		require.NotPanics(t, func() {
			assert.NoError(t, InitLoggers(level))
		}, "InitLoggers(%q)", level)
	}
}

func TestStoreConfigValidate(t *testing.T) {
	cfg := DefaultStoreConfig()
	require.NoError(t, cfg.Validate())

	cfg.SweepInterval = 0
	cfg.LogLevel = "nope"
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrInvalidSweepInterval)
	assert.Contains(t, err.Error(), "invalid log level")

	cfg = DefaultStoreConfig()
	cfg.Degree = 1
	assert.ErrorIs(t, cfg.Validate(), db.ErrInvalidDegree)
}

func TestStoreConfigString(t *testing.T) {
	cfg := StoreConfig{SweepInterval: 250 * time.Millisecond, Degree: 16, LogLevel: "debug"}
	out := cfg.String()

	assert.Contains(t, out, "ENGINE")
	assert.Contains(t, out, "250ms")
	assert.Contains(t, out, "16")
	assert.Contains(t, out, "LOGGING")
	assert.Contains(t, out, "debug")
}
