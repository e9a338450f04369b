// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewConnectFunc populates all fields from Config and the provided logger.
func TestNewConnectFunc(t *testing.T) {
	cfg := NewConfig()
	logger := DefaultSLogger()

	fn := NewConnectFunc(cfg, logger)

	require.NotNil(t, fn)
	assert.NotNil(t, fn.Dialer)
	assert.NotNil(t, fn.Logger)
	assert.NotNil(t, fn.TimeNow)
	assert.NotNil(t, fn.ErrClassifier)
}

// Call dials the endpoint address and returns a net.Conn or an error.
func TestConnectFunc(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// endpoint is the server to dial.
		endpoint Endpoint

		// wantAddress is the address the dialer should receive.
		wantAddress string

		// dialErr is the error returned by the dialer.
		dialErr error
	}{
		{
			name:        "plaintext default port",
			endpoint:    NewEndpoint("news.example.com", 0, false),
			wantAddress: "news.example.com:119",
		},

		{
			name:        "TLS default port",
			endpoint:    NewEndpoint("news.example.com", 0, true),
			wantAddress: "news.example.com:563",
		},

		{
			name:        "IPv6 literal",
			endpoint:    NewEndpoint("::1", 1119, false),
			wantAddress: "[::1]:1119",
		},

		{
			name:        "dial error",
			endpoint:    NewEndpoint("news.example.com", 0, false),
			wantAddress: "news.example.com:119",
			dialErr:     errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotNetwork, gotAddress string
			cfg := NewConfig()
			cfg.Dialer = &netstub.FuncDialer{
				DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
					gotNetwork, gotAddress = network, address
					if tt.dialErr != nil {
						return nil, tt.dialErr
					}
					return newMinimalConn(), nil
				},
			}

			fn := NewConnectFunc(cfg, DefaultSLogger())
			conn, err := fn.Call(context.Background(), tt.endpoint)

			assert.Equal(t, "tcp", gotNetwork)
			assert.Equal(t, tt.wantAddress, gotAddress)
			if tt.dialErr != nil {
				require.ErrorIs(t, err, tt.dialErr)
				assert.Nil(t, conn)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, conn)
			conn.Close()
		})
	}
}

// Call propagates the caller's context deadline to the dialer.
func TestConnectFuncCallerContextDeadline(t *testing.T) {
	cfg := NewConfig()
	dialCalled := false
	expectedTimeout := 5 * time.Second
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			dialCalled = true
			deadline, ok := ctx.Deadline()
			assert.True(t, ok, "context should have deadline from caller")
			assert.True(t, time.Until(deadline) <= expectedTimeout)
			return nil, errors.New("expected error")
		},
	}

	fn := NewConnectFunc(cfg, DefaultSLogger())

	ctx, cancel := context.WithTimeout(context.Background(), expectedTimeout)
	defer cancel()

	_, _ = fn.Call(ctx, NewEndpoint("news.example.com", 0, false))

	assert.True(t, dialCalled)
}

// Call emits connectStart/connectDone log events.
func TestConnectFuncLogging(t *testing.T) {
	logger, records := newCapturingLogger()

	cfg := NewConfig()
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			return newMinimalConn(), nil
		},
	}

	fn := NewConnectFunc(cfg, logger)
	conn, err := fn.Call(context.Background(), NewEndpoint("news.example.com", 0, false))
	require.NoError(t, err)
	conn.Close()

	require.Len(t, *records, 2)
	assert.Equal(t, "connectStart", (*records)[0].Message)
	assert.Equal(t, "connectDone", (*records)[1].Message)
	attrs := recordAttrs((*records)[1])
	assert.Equal(t, "news.example.com:119", attrs["remoteAddr"].String())
	assert.Equal(t, "", attrs["errClass"].String())
}
