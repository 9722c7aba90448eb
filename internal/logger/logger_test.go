package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		mode    string
		enabled zapcore.Level
		muted   zapcore.Level
		wantErr bool
	}{
		{name: "info server", level: "info", mode: "server", enabled: zapcore.InfoLevel, muted: zapcore.DebugLevel},
		{name: "debug stdio", level: "debug", mode: "stdio", enabled: zapcore.DebugLevel, muted: zapcore.DebugLevel - 1},
		{name: "warn with spaces", level: " WARN ", mode: "stdio", enabled: zapcore.WarnLevel, muted: zapcore.InfoLevel},
		{name: "error", level: "error", mode: "server", enabled: zapcore.ErrorLevel, muted: zapcore.WarnLevel},
		{name: "unknown level", level: "verbose", mode: "server", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.level, tt.mode)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer Sync(l)

			assert.NotNil(t, l.Check(tt.enabled, "x"))
			assert.Nil(t, l.Check(tt.muted, "x"))
		})
	}
}
