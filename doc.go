// SPDX-License-Identifier: GPL-3.0-or-later

// Package nntp implements an NNTP (Usenet) client session engine.
//
// # Layers
//
// The package is organized leaf-first:
//
//   - [ConnectFunc] and [TLSHandshakeFunc] dial the news server and optionally
//     wrap the connection with TLS. They are [Func] primitives composed via
//     [Compose2], [Compose3] and [Compose4].
//   - [Transport] owns the established connection and exposes write-all
//     ([Transport.Send]) and read-some ([Transport.ReceiveChunk]) operations.
//   - [ResponseFramer] turns raw chunks into status lines and dot-terminated
//     blocks, validating the 3-digit status code and removing dot-stuffing.
//   - [Session] is the protocol state machine with one method per NNTP command.
//   - [OverviewCatalog] negotiates LIST OVERVIEW.FMT and parses XOVER blocks
//     into [OverviewRecord] values.
//
// The yEnc codec lives in the [github.com/bassosimone/nntp/yenc] package and the
// bbolt-backed header store in [github.com/bassosimone/nntp/headerstore].
//
// # Session States
//
// A [Session] moves through [StateDisconnected], [StateConnected],
// [StateAuthenticated] and [StateGroupSelected]. Transitions only move forward,
// except [Session.Disconnect], which resets to [StateDisconnected] from any state.
// Calling a command in the wrong state returns a [*StateError] without
// touching the network.
//
// # Errors
//
// Failures are returned as values:
//
//   - [*ConnectionError]: resolve, connect, TLS, timeout, or closed-socket failures.
//     After a [*ConnectionError] the transport is closed.
//   - [*ProtocolError]: the server replied with an unexpected status code. The
//     connection remains usable. Use [IsBoundary] to recognize the "no next
//     article" and "no previous article" replies of NEXT and LAST.
//   - [*StateError]: the command is not legal in the current session state.
//
// # Observability
//
// All primitives log through [SLogger] (compatible with [log/slog]). By default
// logging is disabled. Lifecycle and protocol events (connect, TLS handshake,
// NNTP exchanges, close) use [slog.LevelInfo]; per-I/O events use
// [slog.LevelDebug]. Each [Session] tags its events with a spanID generated with
// [NewSpanID]. The password sent with AUTHINFO PASS is never logged.
//
// # Timeouts and Cancellation
//
// Every blocking operation takes a [context.Context]. When the context is done,
// the transport is closed, the in-progress I/O fails, and the operation returns
// a [*ConnectionError] whose Timeout field is true. [Config.IOTimeout] adds a
// per-I/O deadline on top of the context deadline.
//
// # Design Boundaries
//
// A [Session] is a single half-duplex request/response stream: it must not be
// used concurrently and it never pipelines commands. Sessions share no state, so
// callers fetching many groups run one Session per worker. Retry policy belongs
// to the caller; the only built-in retry is the single XOVER to OVER fallback.
package nntp
