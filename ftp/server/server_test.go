package server

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/miniftp/miniftp/ftp/codec"
	"github.com/miniftp/miniftp/ftp/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer starts a server on an ephemeral port with a fresh temp root.
func newTestServer(t *testing.T, withTerminate bool) *Server {
	t.Helper()

	config := common.ServerConfig{
		Endpoint: "127.0.0.1:0",
		RootDir:  t.TempDir(),
		PoolSize: 4,
		LogLevel: "error",
	}
	if withTerminate {
		config.TerminateEndpoint = "127.0.0.1:0"
	}

	srv, err := New(config)
	require.NoError(t, err)
	require.NoError(t, srv.Listen())
	require.NoError(t, srv.ListenTerminate())

	go func() { _ = srv.Serve() }()
	go func() { _ = srv.ServeTerminate() }()
	t.Cleanup(func() { _ = srv.Close() })

	return srv
}

// dialSession connects to the server and consumes the greeting.
func dialSession(t *testing.T, srv *Server) net.Conn {
	t.Helper()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	greeting := readResponse(t, conn)
	require.Equal(t, common.Greeting, greeting)
	return conn
}

func sendCommand(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	_, err := conn.Write([]byte(line))
	require.NoError(t, err)
}

// readResponse performs one fixed-size read, the protocol's response
// granularity.
func readResponse(t *testing.T, conn net.Conn) string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, common.BufferSize)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func roundTrip(t *testing.T, conn net.Conn, line string) string {
	t.Helper()
	sendCommand(t, conn, line)
	return readResponse(t, conn)
}

func TestPwdReturnsRoot(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	assert.Equal(t, srv.config.RootDir+"\n", roundTrip(t, conn, "pwd"))
}

func TestUnknownVerb(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	assert.Equal(t, "ERROR: Invalid command.\n", roundTrip(t, conn, "nonsense"))

	// the session stays open
	assert.Equal(t, srv.config.RootDir+"\n", roundTrip(t, conn, "pwd"))
}

func TestMissingArgumentKeepsSessionOpen(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	tests := []struct {
		verb string
		want string
	}{
		{"cd", "ERROR: No directory specified.\n"},
		{"mkdir", "ERROR: No directory specified.\n"},
		{"delete", "ERROR: No file name specified.\n"},
		{"get", "ERROR: No file name specified.\n"},
		{"put", "ERROR: No file name specified.\n"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, roundTrip(t, conn, tt.verb), "verb %s", tt.verb)
	}

	// all argument errors left the session usable
	assert.Equal(t, srv.config.RootDir+"\n", roundTrip(t, conn, "pwd"))
}

func TestLs(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	assert.Equal(t, "Directory is empty.\n", roundTrip(t, conn, "ls"))

	require.NoError(t, os.WriteFile(filepath.Join(srv.config.RootDir, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(srv.config.RootDir, "sub"), 0755))

	assert.Equal(t, "a.txt\nsub\n", roundTrip(t, conn, "ls"))
}

func TestCd(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	require.NoError(t, os.WriteFile(filepath.Join(srv.config.RootDir, "plain.txt"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(srv.config.RootDir, "sub"), 0755))

	assert.Equal(t, "ERROR: Directory not found.\n", roundTrip(t, conn, "cd missing"))
	assert.Equal(t, "ERROR: Not a directory.\n", roundTrip(t, conn, "cd plain.txt"))

	assert.Equal(t, "SUCCESS: Directory changed successfully.\n", roundTrip(t, conn, "cd sub"))
	assert.Equal(t, filepath.Join(srv.config.RootDir, "sub")+"\n", roundTrip(t, conn, "pwd"))

	assert.Equal(t, "SUCCESS: Directory changed successfully.\n", roundTrip(t, conn, "cd .."))
	assert.Equal(t, srv.config.RootDir+"\n", roundTrip(t, conn, "pwd"))
}

func TestMkdir(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	assert.Equal(t, "SUCCESS: Directory created successfully.\n", roundTrip(t, conn, "mkdir data"))
	assert.DirExists(t, filepath.Join(srv.config.RootDir, "data"))

	// second call performs no filesystem mutation
	info, err := os.Stat(filepath.Join(srv.config.RootDir, "data"))
	require.NoError(t, err)
	assert.Equal(t, "ERROR: Directory already exists.\n", roundTrip(t, conn, "mkdir data"))
	after, err := os.Stat(filepath.Join(srv.config.RootDir, "data"))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime())

	// an existing file blocks creation too
	require.NoError(t, os.WriteFile(filepath.Join(srv.config.RootDir, "taken"), nil, 0644))
	assert.Equal(t, "ERROR: Directory already exists.\n", roundTrip(t, conn, "mkdir taken"))
}

func TestDelete(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	assert.Equal(t, "ERROR: File not found.\n", roundTrip(t, conn, "delete missing"))

	require.NoError(t, os.Mkdir(filepath.Join(srv.config.RootDir, "sub"), 0755))
	assert.Equal(t, "ERROR: Not a file.\n", roundTrip(t, conn, "delete sub"))
	assert.DirExists(t, filepath.Join(srv.config.RootDir, "sub"))

	require.NoError(t, os.WriteFile(filepath.Join(srv.config.RootDir, "gone.txt"), []byte("x"), 0644))
	assert.Equal(t, "SUCCESS: File deleted successfully.\n", roundTrip(t, conn, "delete gone.txt"))
	assert.NoFileExists(t, filepath.Join(srv.config.RootDir, "gone.txt"))
}

// TestPutGetRoundTrip uploads a file and downloads it again, asserting a
// byte-for-byte reconstruction.
func TestPutGetRoundTrip(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	payload := bytes.Repeat([]byte("abcdefgh"), 512) // 4096 bytes

	require.Equal(t, "SUCCESS: READY_TO_RECEIVE\n", roundTrip(t, conn, "put report.bin"))
	_, err := conn.Write(payload)
	require.NoError(t, err)
	_, err = conn.Write(codec.Terminator)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS: File transfer completed.\n", readResponse(t, conn))

	stored, err := os.ReadFile(filepath.Join(srv.config.RootDir, "report.bin"))
	require.NoError(t, err)
	assert.Equal(t, payload, stored)

	sendCommand(t, conn, "get report.bin")
	resp := []byte(readResponse(t, conn))
	require.True(t, common.HasStatus(resp, common.StatusSuccess, common.TransferStart))

	var got bytes.Buffer
	received, err := codec.Receive(&got, conn, common.AfterStatusLine(resp))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), received)
	assert.Equal(t, payload, got.Bytes())

	// the session is still usable after both transfers
	assert.Equal(t, srv.config.RootDir+"\n", roundTrip(t, conn, "pwd"))
}

func TestGetErrors(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	assert.Equal(t, "ERROR: File not found.\n", roundTrip(t, conn, "get missing.bin"))

	require.NoError(t, os.Mkdir(filepath.Join(srv.config.RootDir, "sub"), 0755))
	assert.Equal(t, "ERROR: Not a file.\n", roundTrip(t, conn, "get sub"))
}

// TestPutStreamEndsBeforeTerminator half-closes the upload stream before the
// terminator; the server must report a transfer failure.
func TestPutStreamEndsBeforeTerminator(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	require.Equal(t, "SUCCESS: READY_TO_RECEIVE\n", roundTrip(t, conn, "put partial.bin"))
	_, err := conn.Write([]byte("half a payload"))
	require.NoError(t, err)

	tcpConn, ok := conn.(*net.TCPConn)
	require.True(t, ok)
	require.NoError(t, tcpConn.CloseWrite())

	assert.Equal(t, "ERROR: File transfer failed.\n", readResponse(t, conn))
}

// TestSessionWorkingDirectoryIsolation asserts that cd is session state:
// concurrent sessions never observe each other's working directory.
func TestSessionWorkingDirectoryIsolation(t *testing.T) {
	srv := newTestServer(t, false)
	require.NoError(t, os.Mkdir(filepath.Join(srv.config.RootDir, "sub"), 0755))

	connA := dialSession(t, srv)
	connB := dialSession(t, srv)

	require.Equal(t, "SUCCESS: Directory changed successfully.\n", roundTrip(t, connA, "cd sub"))

	assert.Equal(t, filepath.Join(srv.config.RootDir, "sub")+"\n", roundTrip(t, connA, "pwd"))
	assert.Equal(t, srv.config.RootDir+"\n", roundTrip(t, connB, "pwd"))
}

func TestQuitClosesConnection(t *testing.T) {
	srv := newTestServer(t, false)
	conn := dialSession(t, srv)

	sendCommand(t, conn, "quit")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 1)
	_, err := conn.Read(buf)
	assert.Error(t, err)
}

func TestTerminateListener(t *testing.T) {
	srv := newTestServer(t, true)
	conn := dialSession(t, srv)

	terminate := func(line string) string {
		tconn, err := net.Dial("tcp", srv.TerminateAddr().String())
		require.NoError(t, err)
		defer tconn.Close()

		_, err = tconn.Write([]byte(line))
		require.NoError(t, err)
		return readResponse(t, tconn)
	}

	assert.Equal(t, "ERROR: Invalid command.\n", terminate("nonsense"))
	assert.Equal(t, "ERROR: Invalid command.\n", terminate("TERMINATE abc"))
	assert.Equal(t, "ERROR: No such session.\n", terminate("TERMINATE 999"))

	// first session of a fresh server has ID 1
	assert.Equal(t, "SUCCESS: Session terminated.\n", terminate("TERMINATE 1"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 1)
	_, err := conn.Read(buf)
	assert.Error(t, err, "terminated session connection should be closed")
}
