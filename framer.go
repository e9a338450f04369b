// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/bassosimone/runtimex"
)

// StatusLine is the first line of every NNTP response.
type StatusLine struct {
	// Code is the three-digit status code in the 100..599 range.
	Code int

	// Text is what follows the code and its separator, if any.
	Text string
}

// ParseStatusLine parses a response line without its line terminator.
//
// It returns [ErrMalformedStatus] unless the line starts with three digits
// forming a code between 100 and 599 and not followed by another digit. A
// single space, tab or hyphen after the code is not part of the text.
func ParseStatusLine(line string) (StatusLine, error) {
	if len(line) < 3 {
		return StatusLine{}, ErrMalformedStatus
	}
	code := 0
	for i := 0; i < 3; i++ {
		ch := line[i]
		if ch < '0' || ch > '9' {
			return StatusLine{}, ErrMalformedStatus
		}
		code = code*10 + int(ch-'0')
	}
	if code < 100 || code > 599 {
		return StatusLine{}, ErrMalformedStatus
	}
	text := line[3:]
	if text == "" {
		return StatusLine{Code: code}, nil
	}
	switch text[0] {
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return StatusLine{}, ErrMalformedStatus
	case ' ', '\t', '-':
		text = text[1:]
	}
	return StatusLine{Code: code, Text: text}, nil
}

// ChunkReceiver is the read side of a [*Transport].
type ChunkReceiver interface {
	ReceiveChunk(ctx context.Context, maxSize int) ([]byte, error)
}

var _ ChunkReceiver = &Transport{}

// ResponseFramer splits the byte stream read from a [ChunkReceiver] into
// status lines and dot-terminated blocks.
//
// Bytes are buffered until a complete line is available, so the framing does
// not depend on how the stream is fragmented. Bytes following the line just
// returned stay buffered for the next read.
//
// Construct using [NewResponseFramer].
type ResponseFramer struct {
	// ChunkSize is the maximum number of bytes requested per receive.
	//
	// Set by [NewResponseFramer] from [Config.ChunkSize].
	ChunkSize int

	// MaxLineSize bounds the bytes buffered while looking for a line end.
	//
	// Set by [NewResponseFramer] from [Config.MaxLineSize].
	MaxLineSize int

	// Receiver supplies the raw bytes.
	//
	// Set by [NewResponseFramer] to the user-provided receiver.
	Receiver ChunkReceiver

	buf []byte
}

// NewResponseFramer returns a new [*ResponseFramer] reading from r.
func NewResponseFramer(cfg *Config, r ChunkReceiver) *ResponseFramer {
	runtimex.Assert(r != nil)
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	maxLineSize := cfg.MaxLineSize
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	return &ResponseFramer{
		ChunkSize:   chunkSize,
		MaxLineSize: maxLineSize,
		Receiver:    r,
	}
}

// Reset discards any buffered bytes.
func (f *ResponseFramer) Reset() {
	f.buf = nil
}

// ReadLine returns the next line without the CRLF (or bare LF) terminator.
func (f *ResponseFramer) ReadLine(ctx context.Context) (string, error) {
	for {
		if idx := bytes.IndexByte(f.buf, '\n'); idx >= 0 {
			line := f.buf[:idx]
			f.buf = f.buf[idx+1:]
			line = bytes.TrimSuffix(line, []byte{'\r'})
			return string(line), nil
		}
		if len(f.buf) > f.MaxLineSize {
			f.buf = nil
			return "", ErrLineTooLong
		}
		chunk, err := f.Receiver.ReceiveChunk(ctx, f.ChunkSize)
		if err != nil {
			return "", err
		}
		f.buf = append(f.buf, chunk...)
	}
}

// ReadAnyStatusLine reads and parses a status line without validating the code.
//
// A line that does not parse yields a [*ProtocolError] with zero Actual
// reporting expected as the code the caller was waiting for.
func (f *ResponseFramer) ReadAnyStatusLine(ctx context.Context, expected int) (StatusLine, error) {
	status, _, err := f.readStatus(ctx, expected)
	return status, err
}

// ReadStatusLine reads a status line and checks that its code is expected.
//
// On mismatch the parsed line is returned along with a [*ProtocolError].
func (f *ResponseFramer) ReadStatusLine(ctx context.Context, expected int) (StatusLine, error) {
	status, line, err := f.readStatus(ctx, expected)
	if err != nil {
		return status, err
	}
	if status.Code != expected {
		return status, &ProtocolError{Expected: expected, Actual: status.Code, Line: line}
	}
	return status, nil
}

func (f *ResponseFramer) readStatus(ctx context.Context, expected int) (StatusLine, string, error) {
	line, err := f.ReadLine(ctx)
	if err != nil {
		return StatusLine{}, "", err
	}
	status, err := ParseStatusLine(line)
	if err != nil {
		return StatusLine{}, line, &ProtocolError{Expected: expected, Actual: 0, Line: line}
	}
	return status, line, nil
}

// ReadBlock reads a status line with the expected code followed by a
// dot-terminated block. The block is not read when the code mismatches,
// since error responses are single-line.
func (f *ResponseFramer) ReadBlock(ctx context.Context, expected int) (StatusLine, []string, error) {
	status, err := f.ReadStatusLine(ctx, expected)
	if err != nil {
		return status, nil, err
	}
	lines, err := f.ReadDotLines(ctx)
	if err != nil {
		return status, nil, err
	}
	return status, lines, nil
}

// ReadDotLines reads lines up to the "." terminator, which is not returned.
//
// A leading dot is removed from every other line starting with a dot.
func (f *ResponseFramer) ReadDotLines(ctx context.Context) ([]string, error) {
	lines := make([]string, 0)
	for {
		line, err := f.ReadLine(ctx)
		if err != nil {
			return nil, err
		}
		if line == "." {
			return lines, nil
		}
		lines = append(lines, strings.TrimPrefix(line, "."))
	}
}

// String returns the wire form of the status line.
func (s StatusLine) String() string {
	if s.Text == "" {
		return strconv.Itoa(s.Code)
	}
	return strconv.Itoa(s.Code) + " " + s.Text
}
