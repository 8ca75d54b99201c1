package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/miniftp/miniftp/ftp/common"
	"github.com/miniftp/miniftp/ftp/transport"
	"github.com/miniftp/miniftp/lib/workerpool"
	"github.com/puzpuzpuz/xsync/v3"
)

var logger = common.GetLogger("server")

var (
	metricConnections  = metrics.NewCounter("miniftp_connections_total")
	metricAcceptErrors = metrics.NewCounter("miniftp_accept_errors_total")
	metricBytesSent    = metrics.NewCounter("miniftp_transfer_bytes_sent_total")
	metricBytesRecv    = metrics.NewCounter("miniftp_transfer_bytes_received_total")
	metricXferFailures = metrics.NewCounter("miniftp_transfer_failures_total")
)

// Server accepts client connections and serves one command session per
// connection on a fixed-size worker pool. Sessions are tracked in a registry
// so the out-of-band terminate listener can address them by ID.
type Server struct {
	config   common.ServerConfig
	pool     *workerpool.Pool
	sessions *xsync.MapOf[uint64, *session]
	nextID   atomic.Uint64

	listener          net.Listener
	terminateListener net.Listener
}

// New creates a new server. The configured root directory must exist; it
// becomes the initial working directory of every session.
func New(config common.ServerConfig) (*Server, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root directory %s: %v", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root directory %s is not a directory", root)
	}
	config.RootDir = root

	return &Server{
		config:   config,
		pool:     workerpool.New(config.PoolSize),
		sessions: xsync.NewMapOf[uint64, *session](),
	}, nil
}

// Listen binds the command listener. Must be called before Serve.
func (s *Server) Listen() error {
	listener, err := transport.Listen(s.config.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	s.listener = listener

	logger.Info().
		Str("endpoint", listener.Addr().String()).
		Int("workers", s.pool.Size()).
		Str("root", s.config.RootDir).
		Msg("server listening")
	return nil
}

// Addr returns the bound address of the command listener.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs the accept loop until the listener is closed. Each accepted
// connection becomes exactly one pool task owning that connection; an accept
// failure is logged and the loop continues.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			metricAcceptErrors.Inc()
			logger.Error().Err(err).Msg("accept error")
			continue
		}

		if err := transport.Upgrade(conn, s.config.SocketConf, s.config.TCPConf); err != nil {
			logger.Warn().Err(err).Msg("failed to upgrade connection")
		}

		id := s.nextID.Add(1)
		sess := newSession(id, conn, s)
		s.sessions.Store(id, sess)
		metricConnections.Inc()

		logger.Info().
			Uint64("session", id).
			Str("remote", conn.RemoteAddr().String()).
			Msg("client connected")

		s.pool.Submit(sess.run)
	}
}

// Close shuts the server down: both listeners are closed, active session
// connections are closed to unblock their workers, and the pool drains.
func (s *Server) Close() error {
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	if s.terminateListener != nil {
		_ = s.terminateListener.Close()
	}

	s.sessions.Range(func(_ uint64, sess *session) bool {
		_ = sess.conn.Close()
		return true
	})

	s.pool.Shutdown()
	return err
}
