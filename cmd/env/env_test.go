package env

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("writes to the configured output", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer

		logger, err := NewLogger(LogConfig{
			Output: &out,
			Level:  "info",
			Format: "json",
		})
		require.NoError(t, err)

		logger.Debug("hidden")
		logger.Info("crawl finished", "bank", "KHAN")

		assert.NotContains(t, out.String(), "hidden")
		assert.Contains(t, out.String(), `"msg":"crawl finished"`)
		assert.Contains(t, out.String(), `"bank":"KHAN"`)
	})

	t.Run("invalid level", func(t *testing.T) {
		t.Parallel()

		_, err := NewLogger(LogConfig{Level: "loud"})
		assert.ErrorIs(t, err, errInvalidLogLevel)
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()

		_, err := NewLogger(LogConfig{Level: "info", Format: "xml"})
		assert.ErrorIs(t, err, errInvalidLogFormat)
	})
}
