package server

import (
	"io"
	"net"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/miniftp/miniftp/ftp/common"
	"github.com/rs/zerolog"
)

// handlerFunc is invoked with the session and the (re-trimmed) argument of
// the command line.
type handlerFunc func(s *session, arg string)

// handlers is the verb dispatch table.
var handlers = map[string]handlerFunc{
	common.VerbPwd:    (*session).handlePwd,
	common.VerbLs:     (*session).handleLs,
	common.VerbCd:     (*session).handleCd,
	common.VerbMkdir:  (*session).handleMkdir,
	common.VerbDelete: (*session).handleDelete,
	common.VerbGet:    (*session).handleGet,
	common.VerbPut:    (*session).handlePut,
}

// session is the per-connection command loop and its transient state. The
// working directory is session-local: concurrent sessions never observe each
// other's cd.
type session struct {
	id         uint64
	conn       net.Conn
	cwd        string
	srv        *Server
	log        zerolog.Logger
	terminated atomic.Bool
}

func newSession(id uint64, conn net.Conn, srv *Server) *session {
	return &session{
		id:   id,
		conn: conn,
		cwd:  srv.config.RootDir,
		srv:  srv,
		log: logger.With().
			Uint64("session", id).
			Str("remote", conn.RemoteAddr().String()).
			Logger(),
	}
}

// run is the session main loop, executed as one pool task. The task owns the
// connection: it is closed here when the session ends, never elsewhere
// (the terminate listener closes it too, but only to unblock this loop).
func (s *session) run() {
	defer func() {
		s.srv.sessions.Delete(s.id)
		_ = s.conn.Close()
		s.log.Info().Msg("session closed")
	}()

	s.write([]byte(common.Greeting))

	buf := make([]byte, common.BufferSize)
	for {
		n, err := s.conn.Read(buf)
		if err != nil || n <= 0 {
			if s.terminated.Load() {
				s.log.Info().Msg("session terminated by request")
			} else if err != nil && err != io.EOF {
				s.log.Error().Err(err).Msg("read error")
			} else {
				s.log.Info().Msg("client disconnected")
			}
			return
		}

		verb, arg := common.ParseCommand(buf[:n])
		if verb == "" {
			continue
		}
		s.log.Debug().Str("verb", verb).Str("arg", arg).Msg("received command")

		if verb == common.VerbQuit {
			return
		}

		handler, ok := handlers[verb]
		if !ok {
			s.respondError(common.MsgInvalidCommand)
			continue
		}

		metrics.GetOrCreateCounter(`miniftp_commands_total{verb="` + verb + `"}`).Inc()
		handler(s, arg)
	}
}

// terminate marks the session cancelled and closes its connection, which is
// the only way to unblock a worker stuck in socket or file I/O.
func (s *session) terminate() {
	s.terminated.Store(true)
	_ = s.conn.Close()
}

// write sends raw bytes to the client; write failures are logged, not fatal
// to the session (the following read observes the dead connection).
func (s *session) write(data []byte) {
	if _, err := s.conn.Write(data); err != nil {
		s.log.Error().Err(err).Msg("write error")
	}
}

func (s *session) respond(status common.Status, msg string) {
	s.write(common.Response(status, msg))
}

func (s *session) respondError(msg string) {
	s.respond(common.StatusError, msg)
}
