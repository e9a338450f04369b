// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"errors"
	"net"

	"golang.org/x/net/proxy"
)

// NewSOCKS5Dialer returns a [Dialer] reaching the news server through the
// SOCKS5 proxy listening at address. Empty username disables proxy authentication.
//
// Assign the result to [Config.Dialer]. Host names are resolved by the proxy.
func NewSOCKS5Dialer(address, username, password string) (Dialer, error) {
	var auth *proxy.Auth
	if username != "" {
		auth = &proxy.Auth{User: username, Password: password}
	}
	dialer, err := proxy.SOCKS5("tcp", address, auth, &net.Dialer{})
	if err != nil {
		return nil, err
	}
	cd, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("nntp: SOCKS5 dialer does not support contexts")
	}
	return cd, nil
}
