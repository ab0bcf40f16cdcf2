package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/files"
)

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credit.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeTestCSV(t, testCSV(
		testRow("2023Q2", nil),
		testRow("2023Q1", nil),
		testRow("2023Q2", nil),
		testRow("bogus", nil),
	))

	loader := NewLoader(Source{Path: path}, "")
	loader.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)

	info := snap.Info
	assert.Equal(t, path, info.Source)
	assert.Equal(t, FormatCSV, info.Format)
	assert.Len(t, info.Fingerprint, 64)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, 1, info.DroppedRows)
	assert.Equal(t, []string{"2023Q2"}, info.DuplicateQuarters)
	assert.Equal(t, "2023Q1", info.FirstQuarter)
	assert.Equal(t, "2023Q2", info.LastQuarter)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), info.LoadedAt)
	assert.Equal(t, 3, snap.Table.Len())
}

func TestLoaderFingerprintTracksContent(t *testing.T) {
	path := writeTestCSV(t, testCSV(testRow("2023Q1", nil)))
	loader := NewLoader(Source{Path: path}, "")

	first, err := loader.Load(context.Background())
	require.NoError(t, err)
	again, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Info.Fingerprint, again.Info.Fingerprint)

	require.NoError(t, os.WriteFile(path, []byte(testCSV(testRow("2023Q2", nil))), 0o644))
	changed, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Info.Fingerprint, changed.Info.Fingerprint)
}

func TestLoaderErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		loader := NewLoader(Source{Path: filepath.Join(t.TempDir(), "absent.csv")}, "")
		_, err := loader.Load(context.Background())

		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, LoadNotFound, le.Kind)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewLoader(Source{Path: "unused.csv"}, "").Load(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("key is stable", func(t *testing.T) {
		loader := NewLoader(Source{Path: "data/credit.csv"}, "")
		assert.Equal(t, loader.Source().Key(), loader.Key())
	})
}

func TestLoaderDirectoryFollowsLatestRelease(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	q3 := write("24Q3-CreditCardBalances.csv", testCSV(testRow("2024Q3", nil)))
	write("notes.txt", "not a dataset")

	loader := NewLoader(Source{Path: dir}, "")
	key := loader.Key()

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, q3, snap.Info.Source)
	assert.Equal(t, FormatCSV, snap.Info.Format)
	assert.Equal(t, "2024Q3", snap.Info.LastQuarter)

	q4 := write("24Q4-CreditCardBalances.csv", testCSV(testRow("2024Q3", nil), testRow("2024Q4", nil)))

	snap, err = loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, q4, snap.Info.Source)
	assert.Equal(t, "2024Q4", snap.Info.LastQuarter)
	assert.Equal(t, key, loader.Key(), "cache identity stays on the directory")
}

func TestLoaderEmptyDirectory(t *testing.T) {
	_, err := NewLoader(Source{Path: t.TempDir()}, "").Load(context.Background())

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, LoadNotFound, le.Kind)
	assert.ErrorIs(t, err, files.ErrNoDatasets)
}
