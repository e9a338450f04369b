// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"errors"
	"net"
	"strconv"
)

const (
	// DefaultPort is the well-known port for plaintext NNTP.
	DefaultPort = 119

	// DefaultTLSPort is the well-known port for NNTP over TLS.
	DefaultTLSPort = 563
)

// ErrTLSPortMismatch indicates that the endpoint pairs a TLS-only port with a
// plaintext connection or the plaintext port with a TLS connection.
var ErrTLSPortMismatch = errors.New("nntp: port does not match the TLS setting")

// Endpoint identifies a news server.
type Endpoint struct {
	// Host is the server host name or IP address.
	Host string

	// Port is the TCP port. Zero selects [DefaultPort] or [DefaultTLSPort].
	Port uint16

	// TLS selects NNTP over TLS.
	TLS bool
}

// NewEndpoint returns an [Endpoint] filling a zero port with the default
// port for the selected transport.
func NewEndpoint(host string, port uint16, useTLS bool) Endpoint {
	ep := Endpoint{Host: host, Port: port, TLS: useTLS}
	if ep.Port == 0 {
		ep.Port = ep.defaultPort()
	}
	return ep
}

func (ep Endpoint) defaultPort() uint16 {
	if ep.TLS {
		return DefaultTLSPort
	}
	return DefaultPort
}

// Address returns the host:port string to dial.
func (ep Endpoint) Address() string {
	port := ep.Port
	if port == 0 {
		port = ep.defaultPort()
	}
	return net.JoinHostPort(ep.Host, strconv.Itoa(int(port)))
}

// Validate returns [ErrTLSPortMismatch] when a plaintext endpoint uses 443 or
// 563, or a TLS endpoint uses 119.
func (ep Endpoint) Validate() error {
	if ep.Host == "" {
		return errors.New("nntp: empty host")
	}
	switch {
	case !ep.TLS && (ep.Port == 443 || ep.Port == DefaultTLSPort):
		return ErrTLSPortMismatch
	case ep.TLS && ep.Port == DefaultPort:
		return ErrTLSPortMismatch
	}
	return nil
}

// NewEndpointFunc returns a [Func] that always returns the given [Endpoint].
//
// This is the first stage of the dial pipeline built by [Session.Connect].
func NewEndpointFunc(endpoint Endpoint) Func[Unit, Endpoint] {
	return ConstFunc(endpoint)
}
