// Package usagemon reclaims disk space from archived log files.
//
// A single monitor per daemon periodically samples free space on the
// filesystem that holds the archive directory. When the free ratio
// drops to the lower threshold, it deletes the oldest archived files
// until enough space to reach the upper threshold has been freed. The
// monitor only ever touches files under archived/, which no session
// references, so it needs no coordination with active writers.
package usagemon
