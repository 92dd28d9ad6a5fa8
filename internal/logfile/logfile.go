package logfile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/Infinidat/loggest/internal/logging"
)

// Extension is the suffix of rotated log files, shared with the ioym
// decoder.
const Extension = ".ioym"

// ArchiveDirName is the subdirectory closed files are moved into.
const ArchiveDirName = "archived"

// DefaultRotateThreshold is the uncompressed byte volume a file
// accepts before rotating when no threshold is configured.
const DefaultRotateThreshold = 1 << 30

// Options configures a log file.
type Options struct {
	// Encoder compresses appended data. It is shared between files;
	// zstd.Encoder.EncodeAll is safe for concurrent use.
	Encoder *zstd.Encoder
	// RotateThreshold is the uncompressed byte count that triggers
	// rotation. Zero selects DefaultRotateThreshold.
	RotateThreshold int64
	// Logger receives open/rotate/archive events.
	Logger *slog.Logger
}

// NewEncoder builds a zstd encoder for the given zstd compression
// level (1-22).
func NewEncoder(level int) (*zstd.Encoder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return encoder, nil
}

// File is one open log destination. It is owned by a single session
// and is not safe for concurrent use.
type File struct {
	dir      string
	name     string
	index    int
	consumed int64
	file     *os.File
	opts     Options
	logger   *slog.Logger
}

// Open creates the first rotation of dir/name and returns its handle.
func Open(dir, name string, opts Options) (*File, error) {
	if opts.RotateThreshold <= 0 {
		opts.RotateThreshold = DefaultRotateThreshold
	}
	f := &File{
		dir:    dir,
		name:   name,
		index:  1,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "logfile"),
	}
	handle, err := os.Create(f.path(f.index))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", f.path(f.index), err)
	}
	f.file = handle
	f.logger.Info("opened", logging.String("path", f.path(f.index)))
	return f, nil
}

// Name returns the destination name the file was opened under.
func (f *File) Name() string {
	return f.name
}

// Consumed returns the uncompressed bytes accepted since the last
// rotation.
func (f *File) Consumed() int64 {
	return f.consumed
}

// Write compresses data as one independent zstd frame and appends it
// to the current rotation. Crossing the rotation threshold triggers at
// most one rotation.
func (f *File) Write(data []byte) error {
	if f.file == nil {
		return errors.New("log file is closed")
	}
	var frame []byte
	if f.opts.Encoder != nil {
		frame = f.opts.Encoder.EncodeAll(data, nil)
	} else {
		frame = data
	}
	if _, err := f.file.Write(frame); err != nil {
		return fmt.Errorf("write %s: %w", f.path(f.index), err)
	}
	f.consumed += int64(len(data))
	if f.consumed >= f.opts.RotateThreshold {
		if err := f.rotate(); err != nil {
			return err
		}
	}
	return nil
}

// rotate closes the current rotation, opens the next numbered file,
// and archives the closed one.
func (f *File) rotate() error {
	oldPath := f.path(f.index)
	if err := f.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", oldPath, err)
	}
	f.file = nil

	f.index++
	handle, err := os.Create(f.path(f.index))
	if err != nil {
		return fmt.Errorf("create %s: %w", f.path(f.index), err)
	}
	f.file = handle
	f.consumed = 0
	f.logger.Info("opened", logging.String("path", f.path(f.index)))

	if err := Archive(oldPath); err != nil {
		return err
	}
	f.logger.Debug("archived", logging.String("path", oldPath))
	return nil
}

// Close closes the current rotation and archives it. Every byte ever
// written ends up under archived/, making the usage monitor the single
// authority for deletion. Close is idempotent.
func (f *File) Close() error {
	if f.file == nil {
		return nil
	}
	path := f.path(f.index)
	closeErr := f.file.Close()
	f.file = nil
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}
	if err := Archive(path); err != nil {
		return err
	}
	f.logger.Debug("archived", logging.String("path", path))
	return nil
}

func (f *File) path(index int) string {
	return filepath.Join(f.dir, fmt.Sprintf("%s.%02d%s", f.name, index, Extension))
}

// Archive moves a closed log file into the archived/ subdirectory
// beside it, creating the subdirectory on demand.
func Archive(path string) error {
	archiveDir := filepath.Join(filepath.Dir(path), ArchiveDirName)
	if err := ensureDirectory(archiveDir); err != nil {
		return err
	}
	target := filepath.Join(archiveDir, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	return nil
}

func ensureDirectory(dir string) error {
	err := os.Mkdir(dir, 0o755)
	if err == nil || errors.Is(err, fs.ErrExist) {
		return nil
	}
	return fmt.Errorf("create %s: %w", dir, err)
}
