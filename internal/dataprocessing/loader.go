package dataprocessing

import (
	"context"
	"errors"
	"time"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/files"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// Loader reads one configured source and builds snapshots of it
type Loader struct {
	source  Source
	builder *Builder
	now     func() time.Time
}

// NewLoader creates a loader for src. An empty periodColumn selects YRQTR.
func NewLoader(src Source, periodColumn string) *Loader {
	return &Loader{
		source:  src,
		builder: NewBuilder(periodColumn),
		now:     time.Now,
	}
}

// Source returns the configured source. Its path may name a directory of
// releases rather than a file.
func (l *Loader) Source() Source {
	return l.source
}

// Key is the cache identity of the loader's source
func (l *Loader) Key() string {
	return l.source.Key()
}

// Load reads and builds the source. It matches LoadFunc so a loader can back
// a TableCache directly. A directory source is resolved to its latest release
// on every call, so a reload after invalidation picks up new releases.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := l.resolve()
	if err != nil {
		return nil, err
	}

	raw, fingerprint, err := ReadSource(src)
	if err != nil {
		return nil, err
	}

	table, stats, err := l.builder.Build(raw)
	if err != nil {
		return nil, err
	}

	info := domain.DatasetInfo{
		Source:            src.Path,
		Format:            src.ResolvedFormat(),
		Fingerprint:       fingerprint,
		Rows:              stats.Rows,
		DroppedRows:       stats.DroppedRows,
		DuplicateQuarters: stats.DuplicateQuarters,
		LoadedAt:          l.now().UTC(),
	}
	if first := table.Records; len(first) > 0 {
		info.FirstQuarter = first[0].Quarter
		info.LastQuarter = first[len(first)-1].Quarter
	}

	return &Snapshot{Table: table, Info: info, Stats: stats}, nil
}

// resolve returns the file to read for this load
func (l *Loader) resolve() (Source, error) {
	path, err := files.ResolveDataset(l.source.Path)
	if err != nil {
		kind := LoadUnreadable
		if errors.Is(err, files.ErrNoDatasets) {
			kind = LoadNotFound
		}
		return Source{}, &LoadError{Source: l.source.Path, Kind: kind, Err: err}
	}
	src := l.source
	src.Path = path
	return src, nil
}
