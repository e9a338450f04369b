// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"crypto/tls"
	"net"
	"time"
)

const (
	// DefaultChunkSize is the maximum number of bytes a single
	// [Transport.ReceiveChunk] call requests from the connection.
	DefaultChunkSize = 1024

	// DefaultMaxLineSize bounds the bytes buffered while looking for CRLF.
	DefaultMaxLineSize = 1 << 20
)

// Config holds common configuration for nntp operations.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// ChunkSize is the read size used by [*ResponseFramer].
	//
	// Set by [NewConfig] to [DefaultChunkSize].
	ChunkSize int

	// Dialer is used by [*ConnectFunc].
	//
	// Set by [NewConfig] to [*net.Dialer]. Use [NewSOCKS5Dialer] to
	// reach the server through a SOCKS5 proxy.
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// IOTimeout bounds each individual send or receive. Zero means that only
	// the context deadline applies.
	//
	// Set by [NewConfig] to zero.
	IOTimeout time.Duration

	// MaxLineSize is the line length limit used by [*ResponseFramer].
	//
	// Set by [NewConfig] to [DefaultMaxLineSize].
	MaxLineSize int

	// TLSConfig is the base TLS configuration. [*Session] clones it
	// and fills ServerName from the [Endpoint] when empty.
	//
	// Set by [NewConfig] to an empty [*tls.Config].
	TLSConfig *tls.Config

	// TLSEngine creates client TLS connections.
	//
	// Set by [NewConfig] to [TLSEngineStdlib].
	TLSEngine TLSEngine

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		ChunkSize:     DefaultChunkSize,
		Dialer:        &net.Dialer{},
		ErrClassifier: DefaultErrClassifier,
		IOTimeout:     0,
		MaxLineSize:   DefaultMaxLineSize,
		TLSConfig:     &tls.Config{},
		TLSEngine:     TLSEngineStdlib{},
		TimeNow:       time.Now,
	}
}
