// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
	"github.com/bassosimone/tlsstub"
	"github.com/stretchr/testify/require"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// recordAttrs returns the attributes of a log record as a map.
func recordAttrs(record slog.Record) map[string]slog.Value {
	attrs := make(map[string]slog.Value)
	record.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value
		return true
	})
	return attrs
}

// newMockTLSEngine returns a [*tlsstub.FuncTLSEngine] that wraps the given
// [TLSConn]. The engine's ClientFunc returns the conn and NameFunc returns "mock".
func newMockTLSEngine(conn TLSConn) *tlsstub.FuncTLSEngine[TLSConn] {
	return &tlsstub.FuncTLSEngine[TLSConn]{
		ClientFunc: func(c net.Conn, config *tls.Config) TLSConn {
			return conn
		},
		NameFunc: func() string {
			return "mock"
		},
		ParrotFunc: func() string {
			return ""
		},
	}
}

// newMinimalConn returns a [*netstub.FuncConn] with the address, deadline
// and close functions set. This is the minimum needed by [NewTransport].
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		CloseFunc:       func() error { return nil },
		LocalAddrFunc:   func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		SetDeadlineFunc: func(t time.Time) error { return nil },
		SetReadDeadFunc: func(t time.Time) error { return nil },
		SetWriteDeaFunc: func(t time.Time) error { return nil },
	}
}

// newScriptedConn returns a [*netstub.FuncConn] playing a news server. The
// greeting is readable immediately and each Write queues the next reply. Once
// the replies are exhausted Read returns [io.EOF]. The returned buffer
// collects everything the client wrote.
func newScriptedConn(greeting string, replies ...string) (*netstub.FuncConn, *bytes.Buffer) {
	pending := []byte(greeting)
	written := &bytes.Buffer{}
	conn := newMinimalConn()
	conn.ReadFunc = func(b []byte) (int, error) {
		if len(pending) <= 0 {
			return 0, io.EOF
		}
		n := copy(b, pending)
		pending = pending[n:]
		return n, nil
	}
	conn.WriteFunc = func(b []byte) (int, error) {
		written.Write(b)
		if len(replies) > 0 {
			pending = append(pending, replies[0]...)
			replies = replies[1:]
		}
		return len(b), nil
	}
	return conn, written
}

// newScriptedSession returns a [*Session] connected to a scripted server.
func newScriptedSession(t *testing.T, greeting string, replies ...string) (*Session, *bytes.Buffer) {
	conn, written := newScriptedConn(greeting, replies...)
	cfg := NewConfig()
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			return conn, nil
		},
	}
	session := NewSession(cfg, DefaultSLogger())
	require.NoError(t, session.Connect(context.Background(), NewEndpoint("news.example.com", 0, false)))
	return session, written
}

// newReaderSession is like [newScriptedSession] but also runs MODE READER,
// so the session starts in [StateAuthenticated]. The written buffer is reset.
func newReaderSession(t *testing.T, replies ...string) (*Session, *bytes.Buffer) {
	session, written := newScriptedSession(t, "200 news.example.com ready\r\n",
		append([]string{"200 reader mode\r\n"}, replies...)...)
	require.NoError(t, session.ModeReader(context.Background()))
	written.Reset()
	return session, written
}

// newGroupSession is like [newReaderSession] but also selects alt.test.
func newGroupSession(t *testing.T, replies ...string) (*Session, *bytes.Buffer) {
	session, written := newReaderSession(t,
		append([]string{"211 5 100 200 alt.test\r\n"}, replies...)...)
	_, err := session.Group(context.Background(), "alt.test")
	require.NoError(t, err)
	written.Reset()
	return session, written
}
