// Package server implements the concurrent FTP-style server: a dual-stack
// TCP acceptor that turns every connection into exactly one worker-pool task
// running a command session.
//
// The package focuses on:
//   - Thread-per-connection dispatch on a bounded, reusable worker pool
//   - A per-connection session loop reading one command per socket read and
//     answering strictly request/response (no pipelining)
//   - A verb dispatch table mapping pwd, ls, cd, mkdir, delete, get and put
//     to their handlers
//   - Session-local working directories: cd affects only the issuing session
//   - An optional out-of-band terminate listener addressing sessions by ID
//
// Key Components:
//
//   - Server: owns the listeners, the worker pool and the session registry.
//     Listen binds, Serve runs the accept loop, Close tears everything down.
//
//   - session: the per-connection command loop and its transient state. The
//     executing pool task owns the connection and closes it on session end.
//
// Every socket and file operation blocks the owning worker; a silent client
// occupies one worker until its connection is closed externally, so the pool
// size bounds the server's effective concurrency.
package server
