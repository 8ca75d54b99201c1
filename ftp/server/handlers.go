package server

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/miniftp/miniftp/ftp/codec"
	"github.com/miniftp/miniftp/ftp/common"
)

// resolve turns a command argument into an absolute path relative to the
// session's working directory.
func (s *session) resolve(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(s.cwd, name)
}

// fsErrorMessage maps a filesystem error to the message surfaced to the
// client: known categories get the protocol wording, everything else is
// reported verbatim.
func fsErrorMessage(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return common.MsgFileNotFound
	case errors.Is(err, fs.ErrPermission):
		return "Permission denied."
	default:
		return err.Error()
	}
}

func (s *session) handlePwd(_ string) {
	s.write(common.Line(s.cwd))
}

func (s *session) handleLs(_ string) {
	entries, err := os.ReadDir(s.cwd)
	if err != nil {
		s.respondError(fsErrorMessage(err))
		return
	}
	if len(entries) == 0 {
		s.write(common.Line(common.MsgDirEmpty))
		return
	}

	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name()
	}
	s.write(common.Line(strings.Join(names, "\n")))
}

func (s *session) handleCd(arg string) {
	if arg == "" {
		s.respondError(common.MsgNoDirName)
		return
	}

	target := s.resolve(arg)
	info, err := os.Stat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.respondError(common.MsgDirNotFound)
	case err != nil:
		s.respondError(fsErrorMessage(err))
	case !info.IsDir():
		s.respondError(common.MsgNotADirectory)
	default:
		s.cwd = target
		s.respond(common.StatusSuccess, common.MsgDirChanged)
	}
}

func (s *session) handleMkdir(arg string) {
	if arg == "" {
		s.respondError(common.MsgNoDirName)
		return
	}

	target := s.resolve(arg)

	// An existing entry of any kind blocks creation; nothing is mutated.
	if _, err := os.Lstat(target); err == nil {
		s.respondError(common.MsgDirExists)
		return
	}

	if err := os.Mkdir(target, 0755); err != nil {
		s.respondError(fsErrorMessage(err))
		return
	}
	s.respond(common.StatusSuccess, common.MsgDirCreated)
}

func (s *session) handleDelete(arg string) {
	if arg == "" {
		s.respondError(common.MsgNoFileName)
		return
	}

	target := s.resolve(arg)
	info, err := os.Lstat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.respondError(common.MsgFileNotFound)
		return
	case err != nil:
		s.respondError(fsErrorMessage(err))
		return
	case info.IsDir():
		s.respondError(common.MsgNotAFile)
		return
	}

	if err := os.Remove(target); err != nil {
		s.respondError(fsErrorMessage(err))
		return
	}
	s.respond(common.StatusSuccess, common.MsgFileDeleted)
}

// handleGet streams a file to the client: the transfer announcement, the raw
// file bytes in fixed chunks, then the terminator line.
func (s *session) handleGet(arg string) {
	if arg == "" {
		s.respondError(common.MsgNoFileName)
		return
	}

	target := s.resolve(arg)
	info, err := os.Stat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.respondError(common.MsgFileNotFound)
		return
	case err != nil:
		s.respondError(fsErrorMessage(err))
		return
	case info.IsDir():
		s.respondError(common.MsgNotAFile)
		return
	}

	file, err := os.Open(target)
	if err != nil {
		s.respondError(fsErrorMessage(err))
		return
	}
	defer file.Close()

	s.respond(common.StatusSuccess, common.TransferStart)

	sent, err := codec.Send(s.conn, file)
	if err != nil {
		metricXferFailures.Inc()
		s.log.Error().Err(err).Str("file", target).Msg("download failed")
		return
	}
	metricBytesSent.Add(int(sent))
	s.log.Info().Str("file", target).Int64("bytes", sent).Msg("file sent")
}

// handlePut receives a file from the client, accumulating the stream until
// the terminator line is found.
func (s *session) handlePut(arg string) {
	if arg == "" {
		s.respondError(common.MsgNoFileName)
		return
	}

	target := s.resolve(arg)
	file, err := os.Create(target)
	if err != nil {
		s.respondError(fsErrorMessage(err))
		return
	}

	s.respond(common.StatusSuccess, common.ReadyToReceive)

	received, err := codec.Receive(file, s.conn, nil)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		metricXferFailures.Inc()
		s.log.Error().Err(err).Str("file", target).Msg("upload failed")
		s.respondError(common.MsgTransferFailed)
		return
	}

	metricBytesRecv.Add(int(received))
	s.log.Info().Str("file", target).Int64("bytes", received).Msg("file received")
	s.respond(common.StatusSuccess, common.MsgTransferDone)
}
