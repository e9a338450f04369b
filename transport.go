//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/measurexlite/conn.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/conn.go
//

package nntp

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bassosimone/runtimex"
	"github.com/bassosimone/safeconn"
)

// TransportKind tells plaintext and TLS transports apart.
type TransportKind string

const (
	// TransportPlain is NNTP over plain TCP.
	TransportPlain = TransportKind("plain")

	// TransportTLS is NNTP over TLS.
	TransportTLS = TransportKind("tls")
)

// Transport owns the byte stream connected to a news server.
//
// Every I/O operation takes a [context.Context]: the read or write deadline is
// the earliest of the context deadline and [Transport.IOTimeout], and the
// connection is closed as soon as the context is done. Any I/O failure closes
// the transport and returns a [*ConnectionError]. Once closed, no further
// reads or writes reach the connection.
//
// A [*Transport] is not safe for concurrent use, except [Transport.Close]
// which may be called from any goroutine.
//
// Construct using [NewTransport] or [NewTransportFunc].
type Transport struct {
	closeonce sync.Once
	conn      net.Conn
	kind      TransportKind
	laddr     string
	open      atomic.Bool
	protocol  string
	raddr     string

	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// IOTimeout bounds each individual send or receive. Zero disables it.
	IOTimeout time.Duration

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	Logger SLogger

	// TimeNow is the function to get the current time (configurable for testing).
	TimeNow func() time.Time
}

// NewTransport wraps conn into an open [*Transport] of the given kind.
//
// The cfg argument contains the common configuration for nntp operations.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewTransport(cfg *Config, conn net.Conn, kind TransportKind, logger SLogger) *Transport {
	runtimex.Assert(conn != nil)
	t := &Transport{
		conn:          conn,
		kind:          kind,
		laddr:         safeconn.LocalAddr(conn),
		protocol:      safeconn.Network(conn),
		raddr:         safeconn.RemoteAddr(conn),
		ErrClassifier: cfg.ErrClassifier,
		IOTimeout:     cfg.IOTimeout,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
	t.open.Store(true)
	return t
}

// Kind returns whether the transport is plaintext or TLS.
func (t *Transport) Kind() TransportKind {
	return t.kind
}

// IsOpen returns whether the transport has not been closed yet.
func (t *Transport) IsOpen() bool {
	return t.open.Load()
}

// Conn returns the underlying [net.Conn].
//
// This method exists to support logging operations that need connection
// metadata (local/remote addresses, network type).
func (t *Transport) Conn() net.Conn {
	return t.conn
}

// Send writes all of data to the connection.
func (t *Transport) Send(ctx context.Context, data []byte) error {
	if !t.IsOpen() {
		return &ConnectionError{Op: "send", Err: ErrTransportClosed}
	}
	if err := ctx.Err(); err != nil {
		return t.fail(ctx, "send", err)
	}
	stop := context.AfterFunc(ctx, func() { t.Close() })
	defer stop()

	deadline := t.deadline(ctx)
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return t.fail(ctx, "send", err)
	}

	t0 := t.TimeNow()
	t.Logger.Debug(
		"sendStart",
		slog.Time("deadline", deadline),
		slog.Int("ioBufferSize", len(data)),
		slog.String("localAddr", t.laddr),
		slog.String("protocol", t.protocol),
		slog.String("remoteAddr", t.raddr),
		slog.Time("t", t0),
	)

	var (
		count int
		err   error
	)
	for count < len(data) && err == nil {
		var n int
		n, err = t.conn.Write(data[count:])
		count += n
		if n <= 0 && err == nil {
			err = io.ErrShortWrite
		}
	}

	t.Logger.Debug(
		"sendDone",
		slog.Time("deadline", deadline),
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", t.ErrClassifier.Classify(err)),
		slog.String("localAddr", t.laddr),
		slog.String("protocol", t.protocol),
		slog.String("remoteAddr", t.raddr),
		slog.Time("t0", t0),
		slog.Time("t", t.TimeNow()),
	)

	if err != nil {
		return t.fail(ctx, "send", err)
	}
	return nil
}

// ReceiveChunk returns the bytes currently available, at most maxSize.
//
// The returned chunk boundaries have no relation with protocol lines. When
// the read returns data together with an error, the data wins and the error
// resurfaces on the next call.
func (t *Transport) ReceiveChunk(ctx context.Context, maxSize int) ([]byte, error) {
	runtimex.Assert(maxSize > 0)
	if !t.IsOpen() {
		return nil, &ConnectionError{Op: "receive", Err: ErrTransportClosed}
	}
	if err := ctx.Err(); err != nil {
		return nil, t.fail(ctx, "receive", err)
	}
	stop := context.AfterFunc(ctx, func() { t.Close() })
	defer stop()

	deadline := t.deadline(ctx)
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, t.fail(ctx, "receive", err)
	}

	t0 := t.TimeNow()
	t.Logger.Debug(
		"receiveStart",
		slog.Time("deadline", deadline),
		slog.Int("ioBufferSize", maxSize),
		slog.String("localAddr", t.laddr),
		slog.String("protocol", t.protocol),
		slog.String("remoteAddr", t.raddr),
		slog.Time("t", t0),
	)

	buf := make([]byte, maxSize)
	count, err := t.conn.Read(buf)

	t.Logger.Debug(
		"receiveDone",
		slog.Time("deadline", deadline),
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", t.ErrClassifier.Classify(err)),
		slog.String("localAddr", t.laddr),
		slog.String("protocol", t.protocol),
		slog.String("remoteAddr", t.raddr),
		slog.Time("t0", t0),
		slog.Time("t", t.TimeNow()),
	)

	if count > 0 {
		return buf[:count], nil
	}
	if err != nil {
		return nil, t.fail(ctx, "receive", err)
	}
	return buf[:0], nil
}

// Close closes the connection. Calling it again is a no-op returning nil.
func (t *Transport) Close() (err error) {
	t.closeonce.Do(func() {
		t.open.Store(false)

		t0 := t.TimeNow()
		t.Logger.Info(
			"closeStart",
			slog.String("localAddr", t.laddr),
			slog.String("protocol", t.protocol),
			slog.String("remoteAddr", t.raddr),
			slog.Time("t", t0),
		)

		err = t.conn.Close()

		t.Logger.Info(
			"closeDone",
			slog.Any("err", err),
			slog.String("errClass", t.ErrClassifier.Classify(err)),
			slog.String("localAddr", t.laddr),
			slog.String("protocol", t.protocol),
			slog.String("remoteAddr", t.raddr),
			slog.Time("t0", t0),
			slog.Time("t", t.TimeNow()),
		)
	})
	return
}

// deadline returns the earliest of the context deadline and now plus
// IOTimeout. The zero value means no deadline.
func (t *Transport) deadline(ctx context.Context) time.Time {
	deadline, _ := ctx.Deadline()
	if t.IOTimeout > 0 {
		limit := t.TimeNow().Add(t.IOTimeout)
		if deadline.IsZero() || limit.Before(deadline) {
			deadline = limit
		}
	}
	return deadline
}

// fail closes the transport and builds the [*ConnectionError] for err.
func (t *Transport) fail(ctx context.Context, op string, err error) error {
	t.Close()
	return newConnectionError(ctx, op, err)
}

// TransportFunc wraps a freshly established connection into a [*Transport].
//
// This is a generic [Func] that can be composed into pipelines. Use
// [TransportFunc] with [net.Conn] after [*ConnectFunc] for plaintext NNTP
// and with [TLSConn] after [*TLSHandshakeFunc] for NNTP over TLS.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type TransportFunc[T net.Conn] struct {
	// Config is the [*Config] used to build the [*Transport].
	//
	// Set by [NewTransportFunc] to the user-provided config.
	Config *Config

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewTransportFunc] to the user-provided logger.
	Logger SLogger
}

// NewTransportFunc returns a new [*TransportFunc].
//
// The cfg argument contains the common configuration for nntp operations.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewTransportFunc[T net.Conn](cfg *Config, logger SLogger) *TransportFunc[T] {
	return &TransportFunc[T]{Config: cfg, Logger: logger}
}

var _ Func[net.Conn, *Transport] = &TransportFunc[net.Conn]{}
var _ Func[TLSConn, *Transport] = &TransportFunc[TLSConn]{}

// Call implements [Func].
func (op *TransportFunc[T]) Call(ctx context.Context, conn T) (*Transport, error) {
	kind := TransportPlain
	if _, ok := any(conn).(TLSConn); ok {
		kind = TransportTLS
	}
	return NewTransport(op.Config, conn, kind, op.Logger), nil
}
