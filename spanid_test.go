// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpanID(t *testing.T) {
	parsed, err := uuid.Parse(NewSpanID())

	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

// Each session draws its own span ID, so concurrent conversations stay apart.
func TestSessionSpanIDsDiffer(t *testing.T) {
	const count = 100
	seen := make(map[string]struct{}, count)

	for range count {
		spanID := NewSession(NewConfig(), DefaultSLogger()).SpanID()
		_, duplicate := seen[spanID]
		require.False(t, duplicate, "duplicate span ID: %s", spanID)
		seen[spanID] = struct{}{}
	}
}
