// Package transport provides the TCP listener and dialer used by the server
// and client, including socket-level tuning of established connections.
package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/miniftp/miniftp/ftp/common"
)

// Listen creates the listening socket. The "tcp" network is dual-stack:
// the listener accepts IPv6 connections as well as IPv4 connections via
// IPv4-mapped addresses.
func Listen(endpoint string) (net.Listener, error) {
	listener, err := net.Listen("tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create TCP socket: %v", err)
	}
	return listener, nil
}

// Dial connects to the given endpoint with an optional timeout in seconds.
func Dial(endpoint string, timeoutSecond int) (net.Conn, error) {
	if timeoutSecond > 0 {
		return net.DialTimeout("tcp", endpoint, time.Duration(timeoutSecond)*time.Second)
	}
	return net.Dial("tcp", endpoint)
}

// Upgrade applies performance settings to a TCP connection using values
// from SocketConf and TCPConf. Non-TCP connections are left untouched.
func Upgrade(conn net.Conn, socketConf common.SocketConf, tcpConf common.TCPConf) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if err := tcpConn.SetNoDelay(tcpConf.TCPNoDelay); err != nil {
		return err
	}

	// Set socket write buffer size if configured
	if socketConf.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(socketConf.WriteBufferSize); err != nil {
			return err
		}
	}

	// Set socket read buffer size if configured
	if socketConf.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(socketConf.ReadBufferSize); err != nil {
			return err
		}
	}

	// Enable TCP keep-alive if configured
	if tcpConf.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(tcpConf.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	// Set TCP linger option if configured
	if tcpConf.TCPLingerSec >= 0 {
		if err := tcpConn.SetLinger(tcpConf.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}
