// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupLine(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		info, err := ParseGroupLine("211 5 100 200 alt.test\r\n")

		require.NoError(t, err)
		assert.Equal(t, GroupInfo{Name: "alt.test", EstimatedCount: 5, Low: 100, High: 200}, info)
	})

	t.Run("unexpected code", func(t *testing.T) {
		_, err := ParseGroupLine("411 no such group")

		assert.Equal(t, StatusNoSuchGroup, StatusCode(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := ParseGroupLine("211 5 100")

		require.ErrorIs(t, err, ErrMalformedStatus)
	})

	t.Run("not a number", func(t *testing.T) {
		_, err := ParseGroupLine("211 five 100 200 alt.test")

		require.ErrorIs(t, err, ErrMalformedStatus)
	})

	t.Run("malformed status", func(t *testing.T) {
		_, err := ParseGroupLine("hello")

		require.ErrorIs(t, err, ErrMalformedStatus)
	})
}

func TestSessionGroup(t *testing.T) {
	t.Run("selects the group", func(t *testing.T) {
		session, written := newReaderSession(t, "211 5 100 200 alt.test\r\n")

		info, err := session.Group(context.Background(), "alt.test")

		require.NoError(t, err)
		assert.Equal(t, GroupInfo{Name: "alt.test", EstimatedCount: 5, Low: 100, High: 200}, info)
		assert.Equal(t, "GROUP alt.test\r\n", written.String())
		assert.Equal(t, StateGroupSelected, session.State())
		selected, ok := session.SelectedGroup()
		assert.True(t, ok)
		assert.Equal(t, info, selected)
	})

	t.Run("failure keeps the previous group", func(t *testing.T) {
		session, _ := newGroupSession(t, "411 no such group\r\n")

		_, err := session.Group(context.Background(), "alt.missing")

		assert.Equal(t, StatusNoSuchGroup, StatusCode(err))
		assert.Equal(t, StateGroupSelected, session.State())
		selected, _ := session.SelectedGroup()
		assert.Equal(t, "alt.test", selected.Name)
	})

	t.Run("invalid name", func(t *testing.T) {
		session, written := newReaderSession(t)

		_, err := session.Group(context.Background(), "alt.test junk")

		require.ErrorIs(t, err, ErrInvalidArgument)
		assert.Zero(t, written.Len())
	})
}

func TestSessionListGroup(t *testing.T) {
	t.Run("whole group", func(t *testing.T) {
		session, written := newReaderSession(t, "211 3 1 4 alt.test list follows\r\n1\r\n2\r\nbogus\r\n4\r\n.\r\n")

		info, numbers, err := session.ListGroup(context.Background(), "alt.test")

		require.NoError(t, err)
		assert.Equal(t, "alt.test", info.Name)
		assert.Equal(t, []uint64{1, 2, 4}, numbers)
		assert.Equal(t, "LISTGROUP alt.test\r\n", written.String())
		assert.Equal(t, StateGroupSelected, session.State())
	})

	t.Run("range of the selected group", func(t *testing.T) {
		session, written := newGroupSession(t, "211 2 100 200 alt.test\r\n150\r\n151\r\n.\r\n")

		_, numbers, err := session.ListGroupRange(context.Background(), "", 150, 0)

		require.NoError(t, err)
		assert.Equal(t, []uint64{150, 151}, numbers)
		assert.Equal(t, "LISTGROUP alt.test 150-\r\n", written.String())
	})

	t.Run("no group selected", func(t *testing.T) {
		session, _ := newReaderSession(t)

		_, _, err := session.ListGroup(context.Background(), "")

		var stateErr *StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, StateGroupSelected, stateErr.Required)
	})
}

func TestFormatRange(t *testing.T) {
	assert.Equal(t, "100-200", formatRange(100, 200))
	assert.Equal(t, "100-", formatRange(100, 0))
}
