// SPDX-License-Identifier: GPL-3.0-or-later

// Package yenc decodes and encodes the yEnc binary transfer encoding used
// to embed binary payloads inside Usenet article bodies.
//
// [ExtractPayload] locates the encoded lines between the =ypart (or =ybegin)
// header and the =yend trailer, tolerating any surrounding text. [Decode]
// reverses the encoding of those lines. [DecodeText] combines the two, while
// [DecodeArticle] additionally parses the headers with [ParseHeaders] and
// verifies the decoded size and CRC32.
package yenc

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrEmptyOrNotFound indicates that no payload was found or that it was empty.
	ErrEmptyOrNotFound = errors.New("yenc: payload empty or not found")

	// ErrTruncatedEscape indicates an escape character not followed by a data byte.
	ErrTruncatedEscape = errors.New("yenc: truncated escape sequence")

	// ErrChecksum indicates a CRC32 different from the one in the trailer.
	ErrChecksum = errors.New("yenc: crc32 mismatch")

	// ErrSize indicates a decoded size different from the advertised one.
	ErrSize = errors.New("yenc: size mismatch")

	// ErrMissingHeader indicates that there is no =ybegin line.
	ErrMissingHeader = errors.New("yenc: missing =ybegin header")
)

// DecodeError is the error returned by [Decode].
type DecodeError struct {
	// Offset is the offset of the offending byte in the encoded input.
	Offset int

	// Err is [ErrEmptyOrNotFound] or [ErrTruncatedEscape].
	Err error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Err.Error(), e.Offset)
}

// Unwrap returns the underlying sentinel.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

const (
	// escape introduces a critical character.
	escape = '='

	// offset is added to each byte by the encoder.
	offset = 42

	// escapeOffset is added to the escaped characters on top of offset.
	escapeOffset = 64
)

// ExtractPayload returns the encoded lines of the first yEnc envelope in raw.
//
// The payload starts after the first =ypart line, or after the first =ybegin
// line for single-part postings, and ends before the following line starting
// with =yend. Markers are matched case-insensitively. Trailing line breaks
// are removed. The boolean is false unless both markers are found.
func ExtractPayload(raw []byte) ([]byte, bool) {
	start := -1
	if _, next, ok := findLine(raw, 0, []byte("=ypart")); ok {
		start = next
	} else if _, next, ok := findLine(raw, 0, []byte("=ybegin")); ok {
		start = next
	}
	if start < 0 {
		return nil, false
	}
	end, _, ok := findLine(raw, start, []byte("=yend"))
	if !ok {
		return nil, false
	}
	return bytes.TrimRight(raw[start:end], "\r\n"), true
}

// findLine returns the start of the first line beginning with prefix at or
// after from, and the offset just past that line.
func findLine(raw []byte, from int, prefix []byte) (start, next int, found bool) {
	for pos := from; pos < len(raw); {
		end := bytes.IndexByte(raw[pos:], '\n')
		lineEnd := len(raw)
		if end >= 0 {
			lineEnd = pos + end + 1
		}
		line := raw[pos:lineEnd]
		if len(line) >= len(prefix) && bytes.EqualFold(line[:len(prefix)], prefix) {
			return pos, lineEnd, true
		}
		pos = lineEnd
	}
	return 0, 0, false
}

// Decode decodes encoded payload lines. Line breaks are skipped.
func Decode(encoded []byte) ([]byte, error) {
	if len(encoded) == 0 {
		return nil, &DecodeError{Offset: 0, Err: ErrEmptyOrNotFound}
	}
	out := make([]byte, 0, len(encoded))
	for idx := 0; idx < len(encoded); idx++ {
		ch := encoded[idx]
		switch ch {
		case '\r', '\n':
			continue
		case escape:
			if idx+1 >= len(encoded) || encoded[idx+1] == '\r' || encoded[idx+1] == '\n' {
				return nil, &DecodeError{Offset: idx, Err: ErrTruncatedEscape}
			}
			idx++
			out = append(out, encoded[idx]-escapeOffset-offset)
		default:
			out = append(out, ch-offset)
		}
	}
	return out, nil
}

// DecodeText extracts the payload from raw and decodes it.
func DecodeText(raw []byte) ([]byte, error) {
	payload, found := ExtractPayload(raw)
	if !found || len(payload) == 0 {
		return nil, &DecodeError{Offset: 0, Err: ErrEmptyOrNotFound}
	}
	return Decode(payload)
}
