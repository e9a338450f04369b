// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 representing a span.
//
// Every [*Session] draws a span ID when it is created, so that all the events
// emitted by the same NNTP conversation can be correlated.
//
// This function panics if the system random number generator fails,
// which should only happen under extraordinary circumstances.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
