package loggest

import (
	"net"
	"os"
	"strings"

	"github.com/Infinidat/loggest/internal/config"
)

// Transport dials the daemon. The pipeline works over any ordered,
// reliable byte stream; the two shipped variants cover Unix domain
// sockets and TCP.
type Transport interface {
	Connect() (net.Conn, error)
}

// UnixTransport connects over a Unix domain socket.
type UnixTransport struct {
	Path string
}

func (t UnixTransport) Connect() (net.Conn, error) {
	return net.Dial("unix", t.Path)
}

// TCPTransport connects over TCP.
type TCPTransport struct {
	Address string
}

func (t TCPTransport) Connect() (net.Conn, error) {
	return net.Dial("tcp", t.Address)
}

// DefaultTransport selects the Unix socket named by LOGGESTD_SOCKET,
// falling back to the daemon's documented default path.
func DefaultTransport() Transport {
	if path := strings.TrimSpace(os.Getenv(config.SocketEnv)); path != "" {
		return UnixTransport{Path: path}
	}
	return UnixTransport{Path: config.DefaultSocketPath}
}
