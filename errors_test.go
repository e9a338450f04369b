// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionError(t *testing.T) {
	t.Run("plain I/O error", func(t *testing.T) {
		cause := errors.New("connection reset by peer")
		err := newConnectionError(context.Background(), "receive", cause)

		assert.Equal(t, "receive", err.Op)
		assert.False(t, err.Timeout)
		require.ErrorIs(t, err, cause)
		assert.Equal(t, "nntp: receive: connection reset by peer", err.Error())
	})

	t.Run("deadline exceeded on the conn", func(t *testing.T) {
		err := newConnectionError(context.Background(), "send", os.ErrDeadlineExceeded)

		assert.True(t, err.Timeout)
		require.ErrorIs(t, err, os.ErrDeadlineExceeded)
	})

	t.Run("cancelled context replaces the cause", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := newConnectionError(ctx, "receive", errors.New("use of closed network connection"))

		assert.True(t, err.Timeout)
		require.ErrorIs(t, err, context.Canceled)
		assert.Contains(t, err.Error(), "timeout")
	})
}

func TestProtocolError(t *testing.T) {
	t.Run("unexpected code", func(t *testing.T) {
		err := &ProtocolError{Expected: 211, Actual: 411, Line: "411 no such group"}

		assert.Equal(t, `nntp: expected 211, got "411 no such group"`, err.Error())
		assert.False(t, errors.Is(err, ErrMalformedStatus))
		assert.Equal(t, 411, StatusCode(err))
	})

	t.Run("malformed line", func(t *testing.T) {
		err := &ProtocolError{Expected: 200, Line: "hello"}

		require.ErrorIs(t, err, ErrMalformedStatus)
		assert.Zero(t, StatusCode(err))
	})
}

func TestStateError(t *testing.T) {
	err := &StateError{Required: StateGroupSelected, Actual: StateAuthenticated}
	assert.Equal(t, "nntp: command requires state group-selected, session is authenticated", err.Error())
}

func TestStatusCode(t *testing.T) {
	assert.Zero(t, StatusCode(nil))
	assert.Zero(t, StatusCode(errors.New("x")))
	assert.Equal(t, 430, StatusCode(fmt.Errorf("article: %w", &ProtocolError{Expected: 220, Actual: 430})))
}

func TestIsBoundary(t *testing.T) {
	assert.True(t, IsBoundary(&ProtocolError{Expected: 223, Actual: StatusNoNextArticle}))
	assert.True(t, IsBoundary(&ProtocolError{Expected: 223, Actual: StatusNoPreviousArticle}))
	assert.False(t, IsBoundary(&ProtocolError{Expected: 223, Actual: StatusNoArticleWithNumber}))
	assert.False(t, IsBoundary(nil))
}
