package usagemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Infinidat/loggest/internal/logging"
)

// DefaultInterval is how often the archive is examined when no
// interval is configured.
const DefaultInterval = 60 * time.Second

// Default free-space thresholds: collection starts at the lower ratio
// and frees enough to restore the upper one.
const (
	DefaultLowerThreshold = 0.10
	DefaultUpperThreshold = 0.15
)

// Space is a snapshot of the filesystem holding the archive
// directory. It is sampled fresh on every tick, never cached.
type Space struct {
	Available uint64
	Total     uint64
}

// Querier samples filesystem usage for a directory.
type Querier interface {
	Space(dir string) (Space, error)
}

// Options configures a Monitor. Zero values select the defaults
// above; a nil Querier selects the statfs-backed implementation.
type Options struct {
	Interval       time.Duration
	LowerThreshold float64
	UpperThreshold float64
	Querier        Querier
	Logger         *slog.Logger
}

// Monitor is the daemon's single background space reclaimer.
type Monitor struct {
	archiveDir string
	interval   time.Duration
	lower      float64
	upper      float64
	querier    Querier
	logger     *slog.Logger
}

// New builds a monitor over the archived/ subdirectory of baseDir.
func New(baseDir string, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.LowerThreshold <= 0 {
		opts.LowerThreshold = DefaultLowerThreshold
	}
	if opts.UpperThreshold <= 0 {
		opts.UpperThreshold = DefaultUpperThreshold
	}
	if opts.Querier == nil {
		opts.Querier = StatfsQuerier{}
	}
	return &Monitor{
		archiveDir: filepath.Join(baseDir, "archived"),
		interval:   opts.Interval,
		lower:      opts.LowerThreshold,
		upper:      opts.UpperThreshold,
		querier:    opts.Querier,
		logger:     logging.NewComponentLogger(opts.Logger, "usagemon"),
	}
}

// ArchiveDir returns the directory the monitor sweeps.
func (m *Monitor) ArchiveDir() string {
	return m.archiveDir
}

// Run ticks until the context is canceled. Sweep failures are logged
// and retried on the next tick; they never stop the monitor.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Sweep(); err != nil {
				m.logger.Error("disk usage sweep failed", logging.Error(err))
			}
		}
	}
}

// Sweep performs one garbage-collection pass: sample free space,
// decide how much to reclaim, delete oldest archived files until that
// much is freed or the archive is exhausted.
func (m *Monitor) Sweep() error {
	if _, err := os.Stat(m.archiveDir); errors.Is(err, fs.ErrNotExist) {
		m.logger.Debug("archive directory does not exist")
		return nil
	}

	space, err := m.querier.Space(m.archiveDir)
	if err != nil {
		return fmt.Errorf("query filesystem usage: %w", err)
	}
	m.logger.Debug("filesystem usage",
		logging.Uint64("available", space.Available),
		logging.Uint64("total", space.Total))

	need := BytesToFree(space, m.lower, m.upper)
	if need == 0 {
		return nil
	}
	m.logger.Info("reclaiming archive space", logging.Uint64("bytes", need))

	files, err := m.sortedArchiveFiles()
	if err != nil {
		return err
	}

	var freed uint64
	for _, file := range files {
		if freed >= need {
			break
		}
		size := uint64(file.size)
		if err := os.Remove(file.path); err != nil {
			// A file that cannot be deleted does not abort the sweep,
			// and does not count as freed space.
			m.logger.Error("cannot remove archived file",
				logging.String("path", file.path), logging.Error(err))
			continue
		}
		freed += size
		m.logger.Info("deleted archived file",
			logging.String("path", file.path),
			logging.Uint64("size", size))
	}
	return nil
}

// BytesToFree computes how much space a sweep must reclaim. It
// returns zero when the free ratio is above the lower threshold, and
// total*upper - available otherwise.
func BytesToFree(space Space, lower, upper float64) uint64 {
	if space.Total == 0 {
		return 0
	}
	if float64(space.Available)/float64(space.Total) > lower {
		return 0
	}
	desired := uint64(float64(space.Total) * upper)
	if desired <= space.Available {
		return 0
	}
	return desired - space.Available
}

type archiveFile struct {
	path    string
	size    int64
	modTime time.Time
}

// sortedArchiveFiles lists regular files under the archive directory,
// oldest modification time first. Entries whose metadata cannot be
// read are logged and excluded so they are never deleted blind.
func (m *Monitor) sortedArchiveFiles() ([]archiveFile, error) {
	entries, err := os.ReadDir(m.archiveDir)
	if err != nil {
		return nil, fmt.Errorf("read archive directory: %w", err)
	}
	files := make([]archiveFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			m.logger.Error("cannot read archived file metadata",
				logging.String("name", entry.Name()), logging.Error(err))
			continue
		}
		files = append(files, archiveFile{
			path:    filepath.Join(m.archiveDir, entry.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})
	return files, nil
}
