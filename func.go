// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import "context"

// Func is a generic operation that accepts an input and returns a result.
//
// The dial pipeline of a [Session] is built by composing Func instances using
// [Compose2], [Compose3] and [Compose4], where the output of one stage flows
// into the input of the next.
//
// Resource cleanup contract: when a Func receives a closeable resource as input
// and returns an error, it is responsible for closing that resource before returning.
// See [TLSHandshakeFunc] for an example of this pattern.
type Func[A, B any] interface {
	Call(ctx context.Context, input A) (B, error)
}

// FuncAdapter wraps a function as a [Func] implementation.
type FuncAdapter[A, B any] func(ctx context.Context, input A) (B, error)

// Call implements [Func].
func (f FuncAdapter[A, B]) Call(ctx context.Context, input A) (B, error) {
	return f(ctx, input)
}
