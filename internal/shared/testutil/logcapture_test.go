package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures every level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("loading dataset", slog.String("path", "data.csv"))
		logger.Error("load failed", slog.Int("row", 7))

		records := handler.Records()
		require.Len(t, records, 2)
		assert.Equal(t, slog.LevelDebug, records[0].Level)
		assert.True(t, handler.ContainsMessage("load failed"))
		AssertLogAttr(t, handler, "row", int64(7))
		AssertLogContains(t, handler, slog.LevelError, "load")
	})

	t.Run("keeps attributes bound with With", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("service", "dashboard")).Warn("duplicate quarters", slog.Int("count", 2))
		logger.Info("plain")

		records := handler.Records()
		require.Len(t, records, 2)
		assert.Equal(t, "dashboard", records[0].Attrs["service"])
		assert.NotContains(t, records[1].Attrs, "service")
	})

	t.Run("prefixes grouped keys", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.WithGroup("dataset").Info("loaded", slog.Int("rows", 48))
		AssertLogAttr(t, handler, "dataset.rows", int64(48))
	})

	t.Run("concurrent writers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.Info("render", slog.Int("chart", n))
			}(i)
		}
		wg.Wait()

		assert.Len(t, handler.Records(), 10)
	})
}
