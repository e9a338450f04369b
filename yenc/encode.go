// SPDX-License-Identifier: GPL-3.0-or-later

package yenc

import (
	"bytes"
	"fmt"
	"hash/crc32"
)

// DefaultLineLength is the customary encoded line length.
const DefaultLineLength = 128

// Encode encodes data into CRLF-terminated lines of about lineLength
// characters. A non-positive lineLength selects [DefaultLineLength].
//
// NUL, LF, CR and '=' are always escaped. TAB and SPACE are escaped in the
// first and last column and '.' in the first column, so that the lines
// survive transports trimming whitespace or dot-stuffing.
func Encode(data []byte, lineLength int) []byte {
	if lineLength <= 0 {
		lineLength = DefaultLineLength
	}
	var out bytes.Buffer
	out.Grow(len(data) + len(data)/32 + 2*(len(data)/lineLength+1))
	column := 0
	for idx, b := range data {
		ch := b + offset
		last := column >= lineLength-1 || idx == len(data)-1
		if mustEscape(ch, column == 0, last) {
			out.WriteByte(escape)
			out.WriteByte(ch + escapeOffset)
			column += 2
		} else {
			out.WriteByte(ch)
			column++
		}
		if column >= lineLength {
			out.WriteString("\r\n")
			column = 0
		}
	}
	if column > 0 {
		out.WriteString("\r\n")
	}
	return out.Bytes()
}

func mustEscape(ch byte, first, last bool) bool {
	switch ch {
	case 0, '\n', '\r', escape:
		return true
	case '\t', ' ':
		return first || last
	case '.':
		return first
	default:
		return false
	}
}

// EncodeArticle returns a single-part yEnc posting of data: the =ybegin line,
// the encoded lines and the =yend line with size and CRC32.
func EncodeArticle(name string, data []byte, lineLength int) []byte {
	if lineLength <= 0 {
		lineLength = DefaultLineLength
	}
	var out bytes.Buffer
	fmt.Fprintf(&out, "=ybegin line=%d size=%d name=%s\r\n", lineLength, len(data), name)
	out.Write(Encode(data, lineLength))
	fmt.Fprintf(&out, "=yend size=%d crc32=%08x\r\n", len(data), crc32.ChecksumIEEE(data))
	return out.Bytes()
}
