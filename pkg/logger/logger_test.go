package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewCore_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	core, err := newCore("debug", "", zapcore.AddSync(&buf), WithService("portfolio-digest"), WithFormat("json"))
	require.NoError(t, err)

	zap.New(core).Info("digest run done", zap.Int("sent", 2))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "portfolio-digest", entry["service"])
	assert.Equal(t, "digest run done", entry["msg"])
	assert.EqualValues(t, 2, entry["sent"])
}

func TestNewCore_LevelFallback(t *testing.T) {
	var buf bytes.Buffer
	core, err := newCore("verbose", "", zapcore.AddSync(&buf))
	require.NoError(t, err)

	log := zap.New(core)
	log.Debug("hidden")
	log.Info("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "shown"), "console encoder writes info")
}
