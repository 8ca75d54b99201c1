// Package codec implements the marker-delimited binary file transfer used by
// get and put on both sides of the connection. Payload bytes are streamed
// verbatim in fixed-size chunks and the stream is ended by a literal
// terminator line. There is no escaping: payloads containing the terminator
// sequence are misdetected as end-of-stream (wire-format limitation).
package codec

import (
	"bytes"
	"errors"
	"io"

	"github.com/miniftp/miniftp/ftp/common"
)

const (
	// ChunkSize is the fixed transfer chunk size
	ChunkSize = 1024
)

// Terminator is the sentinel byte sequence ending every file payload.
var Terminator = []byte(common.TransferEnd)

// ErrIncomplete is returned by Receive when the stream ends before the
// terminator was found.
var ErrIncomplete = errors.New("stream ended before transfer terminator")

// Send streams src to w in ChunkSize chunks until EOF, then writes the
// terminator as a final write. It returns the number of payload bytes sent.
func Send(w io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, ChunkSize)
	var sent int64

	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return sent, werr
			}
			sent += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return sent, err
		}
	}

	_, err := w.Write(Terminator)
	return sent, err
}

// Receive reads from r until the terminator is found and writes the payload
// bytes strictly before it to dst; the terminator itself is discarded.
//
// Incoming bytes accumulate in a rolling buffer that is rescanned in full
// after every read: the terminator may span multiple reads and must never be
// assumed to align with read boundaries. initial holds bytes that were
// already consumed from r by the caller (read-boundary overshoot of the
// preceding response line) and is scanned first.
//
// Returns the number of payload bytes written. If the stream ends before the
// terminator is found, ErrIncomplete is returned.
func Receive(dst io.Writer, r io.Reader, initial []byte) (int64, error) {
	rolling := append([]byte(nil), initial...)
	chunk := make([]byte, ChunkSize)

	for {
		if i := bytes.Index(rolling, Terminator); i >= 0 {
			n, err := dst.Write(rolling[:i])
			return int64(n), err
		}

		n, err := r.Read(chunk)
		if n > 0 {
			rolling = append(rolling, chunk[:n]...)
			continue
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			return 0, ErrIncomplete
		}
		return 0, err
	}
}
