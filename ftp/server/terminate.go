package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/miniftp/miniftp/ftp/common"
	"github.com/miniftp/miniftp/ftp/transport"
)

// VerbTerminate is the single verb understood by the terminate listener.
const VerbTerminate = "TERMINATE"

// ListenTerminate binds the optional out-of-band terminate listener.
// Returns nil without binding when no terminate endpoint is configured.
func (s *Server) ListenTerminate() error {
	if s.config.TerminateEndpoint == "" {
		return nil
	}

	listener, err := transport.Listen(s.config.TerminateEndpoint)
	if err != nil {
		return fmt.Errorf("failed to create terminate listener: %v", err)
	}
	s.terminateListener = listener

	logger.Info().
		Str("endpoint", listener.Addr().String()).
		Msg("terminate listener bound")
	return nil
}

// TerminateAddr returns the bound address of the terminate listener, or nil
// when it is disabled.
func (s *Server) TerminateAddr() net.Addr {
	if s.terminateListener == nil {
		return nil
	}
	return s.terminateListener.Addr()
}

// ServeTerminate accepts out-of-band terminate requests until the listener
// is closed. Each connection carries one "TERMINATE <session-id>" line; a
// matching session is flagged cancelled and its connection closed, which
// unblocks the owning worker. Returns nil immediately when disabled.
func (s *Server) ServeTerminate() error {
	if s.terminateListener == nil {
		return nil
	}

	for {
		conn, err := s.terminateListener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Error().Err(err).Msg("terminate accept error")
			continue
		}
		go s.handleTerminate(conn)
	}
}

func (s *Server) handleTerminate(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, common.BufferSize)
	n, err := conn.Read(buf)
	if err != nil || n <= 0 {
		return
	}

	verb, arg := common.ParseCommand(buf[:n])
	if verb != VerbTerminate {
		s.writeTerminate(conn, common.Response(common.StatusError, common.MsgInvalidCommand))
		return
	}

	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		s.writeTerminate(conn, common.Response(common.StatusError, common.MsgInvalidCommand))
		return
	}

	sess, ok := s.sessions.Load(id)
	if !ok {
		s.writeTerminate(conn, common.Response(common.StatusError, common.MsgNoSuchSession))
		return
	}

	logger.Info().Uint64("session", id).Msg("terminating session")
	sess.terminate()
	s.writeTerminate(conn, common.Response(common.StatusSuccess, common.MsgTerminated))
}

func (s *Server) writeTerminate(conn net.Conn, data []byte) {
	if _, err := conn.Write(data); err != nil {
		logger.Error().Err(err).Msg("terminate write error")
	}
}
