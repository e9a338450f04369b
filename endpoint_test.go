// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		port     uint16
		useTLS   bool
		wantPort uint16
	}{
		{name: "plaintext default", port: 0, useTLS: false, wantPort: DefaultPort},
		{name: "TLS default", port: 0, useTLS: true, wantPort: DefaultTLSPort},
		{name: "explicit port", port: 8119, useTLS: false, wantPort: 8119},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := NewEndpoint("news.example.com", tt.port, tt.useTLS)
			assert.Equal(t, tt.wantPort, ep.Port)
			assert.Equal(t, tt.useTLS, ep.TLS)
		})
	}
}

func TestEndpointAddress(t *testing.T) {
	assert.Equal(t, "news.example.com:119", Endpoint{Host: "news.example.com"}.Address())
	assert.Equal(t, "news.example.com:563", Endpoint{Host: "news.example.com", TLS: true}.Address())
	assert.Equal(t, "[2001:db8::1]:1119", NewEndpoint("2001:db8::1", 1119, false).Address())
}

func TestEndpointValidate(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		wantErr  error
	}{
		{name: "plaintext on 119", endpoint: NewEndpoint("h", 119, false)},
		{name: "TLS on 563", endpoint: NewEndpoint("h", 563, true)},
		{name: "TLS on 443", endpoint: NewEndpoint("h", 443, true)},
		{name: "plaintext on custom port", endpoint: NewEndpoint("h", 8119, false)},
		{name: "plaintext on 563", endpoint: NewEndpoint("h", 563, false), wantErr: ErrTLSPortMismatch},
		{name: "plaintext on 443", endpoint: NewEndpoint("h", 443, false), wantErr: ErrTLSPortMismatch},
		{name: "TLS on 119", endpoint: NewEndpoint("h", 119, true), wantErr: ErrTLSPortMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.endpoint.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("empty host", func(t *testing.T) {
		require.Error(t, Endpoint{Port: 119}.Validate())
	})
}

func TestNewEndpointFunc(t *testing.T) {
	endpoint := NewEndpoint("news.example.com", 0, true)

	fn := NewEndpointFunc(endpoint)
	result, err := fn.Call(context.Background(), Unit{})

	require.NoError(t, err)
	assert.Equal(t, endpoint, result)
}
