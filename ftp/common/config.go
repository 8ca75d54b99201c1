package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Socket configuration (shared by server and client)
// --------------------------------------------------------------------------

// SocketConf holds kernel socket buffer settings
type SocketConf struct {
	// WriteBufferSize is the socket write buffer size in bytes (0 = OS default)
	WriteBufferSize int
	// ReadBufferSize is the socket read buffer size in bytes (0 = OS default)
	ReadBufferSize int
}

// TCPConf holds TCP-specific tuning options
type TCPConf struct {
	// TCPNoDelay disables Nagle's algorithm if set
	TCPNoDelay bool
	// TCPKeepAliveSec is the keep-alive period in seconds (0 = disabled)
	TCPKeepAliveSec int
	// TCPLingerSec is the linger time in seconds (negative = OS default)
	TCPLingerSec int
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the FTP server.
type ServerConfig struct {
	// Endpoint is the address the command listener binds to (e.g. ":8080").
	// The listener is dual-stack and accepts IPv4-mapped IPv6 connections.
	Endpoint string

	// TerminateEndpoint is the optional address of the out-of-band terminate
	// listener. Empty string disables it.
	TerminateEndpoint string

	// MetricsEndpoint is the optional address of the metrics HTTP endpoint.
	// Empty string disables it.
	MetricsEndpoint string

	// RootDir is the initial working directory of every session
	RootDir string

	// PoolSize is the number of worker threads serving connections
	PoolSize int

	// Logging configuration
	LogLevel string

	// Socket tuning
	SocketConf
	TCPConf
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("FTP Server")
	addField("Endpoint", c.Endpoint)
	addField("Root Directory", c.RootDir)
	addField("Worker Pool Size", strconv.Itoa(c.PoolSize))

	if c.TerminateEndpoint != "" {
		addField("Terminate Endpoint", c.TerminateEndpoint)
	}
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	addSection("Socket")
	addField("TCP NoDelay", fmt.Sprintf("%t", c.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.TCPLingerSec))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.ReadBufferSize))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for the interactive client.
type ClientConfig struct {
	// Endpoint is the server address in host:port form
	Endpoint string

	// TimeoutSecond is the dial timeout in seconds (0 = no timeout)
	TimeoutSecond int

	// Logging configuration
	LogLevel string

	// Socket tuning
	SocketConf
	TCPConf
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Dial Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Log Level", c.LogLevel)

	return sb.String()
}
