package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/Infinidat/loggest/internal/config"
	"github.com/Infinidat/loggest/internal/logfile"
	"github.com/Infinidat/loggest/internal/logging"
	"github.com/Infinidat/loggest/internal/session"
	"github.com/Infinidat/loggest/internal/usagemon"
)

const lockFileName = "loggestd.lock"

// Daemon accepts client connections and turns them into compressed,
// rotated, archived log files.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	fileOpts logfile.Options
	monitor  *usagemon.Monitor
	lock     *flock.Flock

	mu        sync.Mutex
	listeners []net.Listener
	conns     map[net.Conn]struct{}
	wg        sync.WaitGroup
}

// New constructs a daemon from validated configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	encoder, err := logfile.NewEncoder(cfg.Storage.CompressionLevel)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "daemon"),
		fileOpts: logfile.Options{
			Encoder:         encoder,
			RotateThreshold: cfg.RotationThresholdBytes(),
			Logger:          logger,
		},
		monitor: usagemon.New(cfg.Paths.Directory, usagemon.Options{
			Interval:       time.Duration(cfg.Retention.CheckIntervalSeconds) * time.Second,
			LowerThreshold: cfg.Retention.FreeSpaceLower,
			UpperThreshold: cfg.Retention.FreeSpaceUpper,
			Logger:         logger,
		}),
		lock:  flock.New(filepath.Join(cfg.Paths.Directory, lockFileName)),
		conns: make(map[net.Conn]struct{}),
	}, nil
}

// Run binds the listeners and serves until the context is canceled.
// On cancellation it closes the listeners and live connections, then
// waits for every session to archive its file before returning.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another loggestd instance already serves %s", d.cfg.Paths.Directory)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("release daemon lock", logging.Error(err))
		}
	}()

	listeners, cleanup, err := d.bind()
	if err != nil {
		return err
	}
	defer cleanup()

	d.mu.Lock()
	d.listeners = listeners
	d.mu.Unlock()

	d.logger.Info("logging to", logging.String("directory", d.cfg.Paths.Directory))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var monitorDone sync.WaitGroup
	monitorDone.Add(1)
	go func() {
		defer monitorDone.Done()
		d.monitor.Run(runCtx)
	}()

	for _, listener := range listeners {
		d.wg.Add(1)
		go d.acceptLoop(runCtx, listener)
	}

	<-ctx.Done()
	d.logger.Info("shutting down")

	d.closeListeners()
	d.closeConnections()
	d.wg.Wait()
	cancel()
	monitorDone.Wait()
	return nil
}

// bind creates the configured listeners. The returned cleanup removes
// the Unix socket file.
func (d *Daemon) bind() ([]net.Listener, func(), error) {
	var listeners []net.Listener
	cleanup := func() {}

	closeAll := func() {
		for _, l := range listeners {
			l.Close()
		}
	}

	if socket := d.cfg.Paths.Socket; socket != "" {
		if err := os.Remove(socket); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("remove stale socket %s: %w", socket, err)
		}
		listener, err := net.Listen("unix", socket)
		if err != nil {
			return nil, nil, fmt.Errorf("listen on %s: %w", socket, err)
		}
		listeners = append(listeners, listener)
		cleanup = func() {
			if err := os.Remove(socket); err != nil && !errors.Is(err, fs.ErrNotExist) {
				d.logger.Warn("remove socket", logging.String("socket", socket), logging.Error(err))
			}
		}
		d.logger.Info("listening", logging.String("socket", socket))
	}

	if address := d.cfg.Paths.Listen; address != "" {
		listener, err := net.Listen("tcp", address)
		if err != nil {
			closeAll()
			cleanup()
			return nil, nil, fmt.Errorf("listen on %s: %w", address, err)
		}
		listeners = append(listeners, listener)
		d.logger.Info("listening", logging.String("address", listener.Addr().String()))
	}

	return listeners, cleanup, nil
}

// acceptLoop serves one listener until it is closed. Accept errors
// are logged and do not stop the loop; each accepted connection gets
// its own session goroutine.
func (d *Daemon) acceptLoop(ctx context.Context, listener net.Listener) {
	defer d.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			d.logger.Warn("accept failed", logging.Error(err))
			continue
		}
		d.track(conn)
		d.wg.Add(1)
		go d.serve(conn)
	}
}

// serve runs one session to completion. A session error of any kind
// affects that connection only.
func (d *Daemon) serve(conn net.Conn) {
	defer d.wg.Done()
	defer d.untrack(conn)
	defer conn.Close()

	sess := session.New(d.cfg.Paths.Directory, d.fileOpts, d.logger)
	d.logger.Debug("connected",
		logging.String(logging.FieldSession, sess.ID()),
		logging.String("remote", remoteName(conn)))

	if err := sess.Run(conn); err != nil {
		d.logger.Error("session failed",
			logging.String(logging.FieldSession, sess.ID()),
			logging.Error(err))
	}
}

func (d *Daemon) track(conn net.Conn) {
	d.mu.Lock()
	d.conns[conn] = struct{}{}
	d.mu.Unlock()
}

func (d *Daemon) untrack(conn net.Conn) {
	d.mu.Lock()
	delete(d.conns, conn)
	d.mu.Unlock()
}

func (d *Daemon) closeListeners() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, listener := range d.listeners {
		listener.Close()
	}
	d.listeners = nil
}

// closeConnections unblocks every session's pending read. Sessions
// finish the write they are on and archive their files; no in-progress
// write is truncated.
func (d *Daemon) closeConnections() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.conns {
		conn.Close()
	}
}

func remoteName(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" {
		return addr.String()
	}
	return "local"
}
