// Package loggest is the client side of the loggest logging pipeline.
//
// Instead of writing to a file, a process hands each log record to a
// loggestd daemon over a socket; the daemon owns compression, rotation,
// and retention. The per-record cost on the client is one encode and
// one blocking write on a connection no other worker shares.
//
// Each worker goroutine owns one Emitter, lazily connected on first
// use, so the hot logging path takes no locks. The main worker logs
// under the configured base name; every other worker logs under
// base name + "." + its worker ID, giving each worker a distinct
// destination file with no coordination.
package loggest

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Infinidat/loggest/internal/wire"
)

// ErrAlreadyInitialized is returned by Init when the process-wide
// client has already been set up.
var ErrAlreadyInitialized = errors.New("loggest: already initialized")

// Config carries the immutable process-wide client settings. Construct
// it once at startup and hand it to Init.
type Config struct {
	// Level is the minimum level the slog integration forwards.
	// Records below it are discarded before any encoding happens.
	// Nil means slog.LevelInfo.
	Level slog.Leveler

	// BaseName names the destination file for the main worker and
	// prefixes every other worker's destination. Required; must be a
	// single path component.
	BaseName string

	// Transport dials the daemon. Nil selects the Unix socket from
	// LOGGESTD_SOCKET, falling back to /run/loggestd.sock.
	Transport Transport
}

var (
	initMu        sync.Mutex
	defaultClient *Client
)

// Init configures the process-wide client. It must be called at most
// once; later calls return ErrAlreadyInitialized.
func Init(cfg Config) (*Client, error) {
	initMu.Lock()
	defer initMu.Unlock()
	if defaultClient != nil {
		return nil, ErrAlreadyInitialized
	}
	client, err := New(cfg)
	if err != nil {
		return nil, err
	}
	defaultClient = client
	return client, nil
}

// Default returns the client configured by Init, or nil before Init.
func Default() *Client {
	initMu.Lock()
	defer initMu.Unlock()
	return defaultClient
}

// New constructs a client without touching the process-wide slot.
// Use it when embedding loggest or in tests.
func New(cfg Config) (*Client, error) {
	if cfg.BaseName == "" {
		return nil, errors.New("loggest: base name is required")
	}
	if err := wire.ValidateName(cfg.BaseName); err != nil {
		return nil, fmt.Errorf("loggest: base name: %w", err)
	}
	if cfg.Level == nil {
		cfg.Level = slog.LevelInfo
	}
	if cfg.Transport == nil {
		cfg.Transport = DefaultTransport()
	}
	return &Client{cfg: cfg}, nil
}

// Client holds the immutable configuration workers derive their
// emitters from. Client itself is safe to share; the emitters it hands
// out are not.
type Client struct {
	cfg Config
}

// Enabled reports whether records at the given level pass the
// configured threshold.
func (c *Client) Enabled(level slog.Level) bool {
	return level >= c.cfg.Level.Level()
}

// Emitter returns the destination endpoint for one worker. The empty
// worker ID is the main worker, logging under the base name alone.
// The returned Emitter must be owned by a single goroutine.
func (c *Client) Emitter(workerID string) *Emitter {
	name := c.cfg.BaseName
	if workerID != "" {
		name = name + "." + workerID
	}
	return &Emitter{client: c, name: name}
}

// Logger returns a slog logger writing through the given worker's
// emitter. Like the emitter it wraps, it must be owned by a single
// goroutine.
func (c *Client) Logger(workerID string) *slog.Logger {
	return slog.New(NewHandler(c.Emitter(workerID), c.cfg.Level, c.cfg.BaseName))
}
