// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"errors"

	"github.com/bassosimone/errclass"
)

// ErrClassifier classifies errors into categorical strings for analysis.
//
// Implementations map errors to short, descriptive labels (e.g., "ETIMEDOUT",
// "ECONNRESET") emitted as the errClass field of *Done log events.
type ErrClassifier interface {
	Classify(err error) string
}

// ErrClassifierFunc adapts a function to the [ErrClassifier] interface.
//
// This allows using simple functions as classifiers:
//
//	op.ErrClassifier = ErrClassifierFunc(errclass.New)
type ErrClassifierFunc func(error) string

var _ ErrClassifier = ErrClassifierFunc(nil)

// Classify implements [ErrClassifier].
func (f ErrClassifierFunc) Classify(err error) string {
	return f(err)
}

const (
	// ErrClassProtocol labels a [*ProtocolError].
	ErrClassProtocol = "ENNTPPROTO"

	// ErrClassState labels a [*StateError].
	ErrClassState = "ENNTPSTATE"
)

// DefaultErrClassifier labels [*ProtocolError] and [*StateError] with
// [ErrClassProtocol] and [ErrClassState] and delegates everything else,
// including the causes wrapped by [*ConnectionError], to [errclass.New].
var DefaultErrClassifier = ErrClassifierFunc(classifyError)

func classifyError(err error) string {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return ErrClassProtocol
	}
	var stateErr *StateError
	if errors.As(err, &stateErr) {
		return ErrClassState
	}
	return errclass.New(err)
}
