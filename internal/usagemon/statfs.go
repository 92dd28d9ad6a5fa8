package usagemon

import (
	"golang.org/x/sys/unix"
)

// StatfsQuerier samples real filesystem usage via statfs(2).
type StatfsQuerier struct{}

// Space returns the available and total bytes of the filesystem
// holding dir.
func (StatfsQuerier) Space(dir string) (Space, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return Space{}, err
	}
	blockSize := uint64(stat.Bsize)
	return Space{
		Available: stat.Bavail * blockSize,
		Total:     stat.Blocks * blockSize,
	}, nil
}
