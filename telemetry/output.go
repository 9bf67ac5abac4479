package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/flow/config"
)

// csvTable is one CSV file that gets a header before its first row.
type csvTable[T any] struct {
	name   string
	file   *os.File
	header bool
}

func openTable[T any](dir, name string) (*csvTable[T], error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvTable[T]{name: name, file: f}, nil
}

func (t *csvTable[T]) append(row T) error {
	rows := []T{row}
	write := gocsv.MarshalWithoutHeaders
	if !t.header {
		write = gocsv.Marshal
	}
	if err := write(rows, t.file); err != nil {
		return fmt.Errorf("writing %s: %w", t.name, err)
	}
	t.header = true
	return nil
}

// OutputManager writes a run's config.yaml, stats.csv, perf.csv and
// snapshots under one directory. A nil manager discards everything, so
// callers need not check whether output is enabled.
type OutputManager struct {
	dir   string
	stats *csvTable[WindowStats]
	perf  *csvTable[PerfStatsCSV]
}

// NewOutputManager creates dir and opens the CSV files. It returns nil,
// nil when dir is empty.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	stats, err := openTable[WindowStats](dir, "stats.csv")
	if err != nil {
		return nil, err
	}
	perf, err := openTable[PerfStatsCSV](dir, "perf.csv")
	if err != nil {
		stats.file.Close()
		return nil, err
	}
	return &OutputManager{dir: dir, stats: stats, perf: perf}, nil
}

// WriteConfig saves cfg as config.yaml.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats appends one window row to stats.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.stats.append(stats)
}

// WritePerf appends one row to perf.csv for the window ending at windowEnd.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	return om.perf.append(stats.ToCSV(windowEnd))
}

// SaveSnapshot writes snap under the snapshots subdirectory.
func (om *OutputManager) SaveSnapshot(snap *Snapshot) (string, error) {
	if om == nil || snap == nil {
		return "", nil
	}
	return SaveSnapshot(snap, filepath.Join(om.dir, "snapshots"))
}

// Dir returns the output directory, or "" for a nil manager.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes both CSV files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(om.stats.file.Close(), om.perf.file.Close())
}
