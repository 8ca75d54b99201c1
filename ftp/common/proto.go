package common

import (
	"bytes"
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Wire constants
// --------------------------------------------------------------------------

const (
	// Greeting is sent to every client immediately after connecting,
	// before any command is read.
	Greeting = "Welcome to the FTP-Server! Command Away"

	// TransferStart is the sentinel message announcing a download stream
	TransferStart = "FILE_TRANSFER_START"

	// TransferEnd is the literal terminator line ending a file payload.
	// Payload bytes are not escaped: a file containing this sequence is
	// misdetected as end-of-stream. Accepted wire-format limitation.
	TransferEnd = "FILE_TRANSFER_END\n"

	// ReadyToReceive is the sentinel message announcing upload readiness
	ReadyToReceive = "READY_TO_RECEIVE"

	// BufferSize is the maximum command line length. Commands are
	// interpreted at read-boundary granularity: one read, one command.
	BufferSize = 1024
)

// Command verbs
const (
	VerbPwd    = "pwd"
	VerbLs     = "ls"
	VerbCd     = "cd"
	VerbMkdir  = "mkdir"
	VerbDelete = "delete"
	VerbGet    = "get"
	VerbPut    = "put"
	VerbQuit   = "quit"
)

// Response messages
const (
	MsgDirChanged     = "Directory changed successfully."
	MsgDirCreated     = "Directory created successfully."
	MsgDirExists      = "Directory already exists."
	MsgDirNotFound    = "Directory not found."
	MsgDirEmpty       = "Directory is empty."
	MsgNotADirectory  = "Not a directory."
	MsgNoDirName      = "No directory specified."
	MsgFileDeleted    = "File deleted successfully."
	MsgFileNotFound   = "File not found."
	MsgNotAFile       = "Not a file."
	MsgNoFileName     = "No file name specified."
	MsgTransferDone   = "File transfer completed."
	MsgTransferFailed = "File transfer failed."
	MsgInvalidCommand = "Invalid command."
	MsgTerminated     = "Session terminated."
	MsgNoSuchSession  = "No such session."
)

// --------------------------------------------------------------------------
// Status type
// --------------------------------------------------------------------------

// Status classifies a response line.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusError
)

// String returns the wire representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// Response formats a status response line: "<STATUS>: <message>\n"
func Response(status Status, msg string) []byte {
	return []byte(fmt.Sprintf("%s: %s\n", status, msg))
}

// Line formats a plain response line: "<message>\n"
func Line(msg string) []byte {
	return []byte(msg + "\n")
}

// --------------------------------------------------------------------------
// Parsing helpers
// --------------------------------------------------------------------------

// ParseCommand splits a raw command line into verb and argument. The line is
// trimmed of surrounding whitespace/CR/LF, then split on the first space;
// the argument is trimmed again. The verb of an empty line is "".
func ParseCommand(line []byte) (verb, arg string) {
	s := strings.TrimSpace(string(line))
	if s == "" {
		return "", ""
	}
	verb, arg, _ = strings.Cut(s, " ")
	return verb, strings.TrimSpace(arg)
}

// HasStatus reports whether a raw response starts with the given status and
// message (e.g. "SUCCESS: FILE_TRANSFER_START").
func HasStatus(resp []byte, status Status, msg string) bool {
	return bytes.HasPrefix(resp, []byte(fmt.Sprintf("%s: %s", status, msg)))
}

// AfterStatusLine returns the bytes following the first line of resp. Used
// by the download path where a single read may contain both the transfer
// announcement and the first payload bytes.
func AfterStatusLine(resp []byte) []byte {
	if i := bytes.IndexByte(resp, '\n'); i >= 0 {
		return resp[i+1:]
	}
	return nil
}
