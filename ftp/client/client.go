// Package client implements the interactive command-line client: it mirrors
// the server's command surface, runs the transfer codec locally for get/put,
// and prints every other response verbatim.
package client

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/miniftp/miniftp/ftp/codec"
	"github.com/miniftp/miniftp/ftp/common"
	"github.com/miniftp/miniftp/ftp/transport"
)

var logger = common.GetLogger("client")

const prompt = "myftp> "

// Client is a single-connection interactive client. The protocol is strictly
// request/response: a new command is never sent before the previous response
// has been fully received.
type Client struct {
	config common.ClientConfig
	conn   net.Conn
}

// New creates a client for the given configuration.
func New(config common.ClientConfig) *Client {
	return &Client{config: config}
}

// Connect dials the server and applies socket tuning. The greeting is read
// by Run, not here.
func (c *Client) Connect() error {
	conn, err := transport.Dial(c.config.Endpoint, c.config.TimeoutSecond)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", c.config.Endpoint, err)
	}
	if err := transport.Upgrade(conn, c.config.SocketConf, c.config.TCPConf); err != nil {
		logger.Warn().Err(err).Msg("failed to upgrade connection")
	}

	c.conn = conn
	logger.Info().Str("endpoint", c.config.Endpoint).Msg("connected to server")
	return nil
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Run reads command lines from in until quit or EOF and writes responses to
// out. It first receives and prints the server greeting.
func (c *Client) Run(in io.Reader, out io.Writer) error {
	greeting, err := c.receive()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(greeting))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		verb, arg := common.ParseCommand([]byte(line))
		if verb == common.VerbQuit {
			c.send(common.VerbQuit)
			return nil
		}

		// get/put with an argument run the transfer codec locally; every
		// other line (including bare get/put, which the server rejects)
		// is plain send-and-print.
		switch {
		case verb == common.VerbGet && arg != "":
			err = c.Get(arg, out)
		case verb == common.VerbPut && arg != "":
			err = c.Put(arg, out)
		default:
			err = c.roundTrip(line, out)
		}
		if err != nil {
			return err
		}
	}
}

// Get downloads the named file into the current directory, overwriting any
// existing local file.
func (c *Client) Get(name string, out io.Writer) error {
	if err := c.send(common.VerbGet + " " + name); err != nil {
		return err
	}
	resp, err := c.receive()
	if err != nil {
		return err
	}

	if !common.HasStatus(resp, common.StatusSuccess, common.TransferStart) {
		fmt.Fprint(out, string(resp))
		return nil
	}

	// The announcement read may already contain the first payload bytes;
	// hand them to the codec as the initial rolling buffer.
	initial := common.AfterStatusLine(resp)

	file, err := os.Create(name)
	if err != nil {
		// Drain the stream anyway so the connection stays in lockstep.
		_, _ = codec.Receive(io.Discard, c.conn, initial)
		fmt.Fprintln(out, "Error: Unable to create local file.")
		return nil
	}

	received, rerr := codec.Receive(file, c.conn, initial)
	if cerr := file.Close(); rerr == nil {
		rerr = cerr
	}
	if rerr != nil {
		return fmt.Errorf("file transfer failed: %v", rerr)
	}

	logger.Debug().Str("file", name).Int64("bytes", received).Msg("download complete")
	fmt.Fprintf(out, "File received successfully: %s\n", name)
	return nil
}

// Put uploads the named local file to the server's working directory.
func (c *Client) Put(name string, out io.Writer) error {
	file, err := os.Open(name)
	if err != nil {
		fmt.Fprintln(out, "Error: Unable to open file.")
		return nil
	}
	defer file.Close()

	if err := c.send(common.VerbPut + " " + name); err != nil {
		return err
	}
	resp, err := c.receive()
	if err != nil {
		return err
	}

	if !common.HasStatus(resp, common.StatusSuccess, common.ReadyToReceive) {
		fmt.Fprint(out, string(resp))
		return nil
	}

	fmt.Fprintln(out, "Transmitting File")
	sent, err := codec.Send(c.conn, file)
	if err != nil {
		return fmt.Errorf("file transfer failed: %v", err)
	}
	logger.Debug().Str("file", name).Int64("bytes", sent).Msg("upload complete")

	// Final server verdict on the transfer.
	resp, err = c.receive()
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(resp))
	return nil
}

// roundTrip sends one command line and prints the single response.
func (c *Client) roundTrip(line string, out io.Writer) error {
	if err := c.send(line); err != nil {
		return err
	}
	resp, err := c.receive()
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(resp))
	return nil
}

// send writes one command line. Commands carry no explicit framing; the
// server interprets them at read-boundary granularity.
func (c *Client) send(line string) error {
	if _, err := c.conn.Write([]byte(line)); err != nil {
		return fmt.Errorf("failed to send command: %v", err)
	}
	return nil
}

// receive performs a single fixed-size read. A closed or broken connection
// is reported as a disconnect.
func (c *Client) receive() ([]byte, error) {
	buf := make([]byte, common.BufferSize)
	n, err := c.conn.Read(buf)
	if err != nil || n <= 0 {
		if err == nil {
			err = io.EOF
		}
		return nil, fmt.Errorf("disconnected from server: %v", err)
	}
	return buf[:n], nil
}
