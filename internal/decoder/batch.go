package decoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Infinidat/loggest/internal/logfile"
)

// DecodeFiles decodes every input into a sibling plaintext file, one
// worker per file. Every file is attempted regardless of earlier
// failures; the joined error reports all of them.
func DecodeFiles(paths []string, loc *time.Location) error {
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			errs[i] = DecodeFile(path, loc)
		}(i, path)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// DecodeFile rewrites one stored file as plaintext beside it: the
// output drops the rotated-log extension, inherits the source's
// modification time, and replaces the source, which is deleted once
// the decode succeeds.
func DecodeFile(path string, loc *time.Location) error {
	source, err := openInput(path)
	if err != nil {
		return err
	}
	defer source.Close()

	outputPath := strings.TrimSuffix(path, logfile.Extension)
	output, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}

	if err := decodeStream(source, output, loc); err != nil {
		output.Close()
		os.Remove(outputPath)
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outputPath, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.Chtimes(outputPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("preserve times of %s: %w", outputPath, err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// DecodeTo streams one stored file's decoded text to w. Used for the
// single-input stdout mode.
func DecodeTo(path string, w io.Writer, loc *time.Location) error {
	source, err := openInput(path)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := decodeStream(source, w, loc); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// openInput validates and opens one input path. A missing file is
// reported before an unsupported extension.
func openInput(path string) (*os.File, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file %q not found", path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !strings.HasSuffix(path, logfile.Extension) {
		return nil, fmt.Errorf("unsupported file type for %q", path)
	}
	return os.Open(path)
}

func decodeStream(r io.Reader, w io.Writer, loc *time.Location) error {
	decoder, err := New(r, loc)
	if err != nil {
		return err
	}
	defer decoder.Close()
	return decoder.Decode(w)
}
