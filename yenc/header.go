// SPDX-License-Identifier: GPL-3.0-or-later

package yenc

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"
)

// Begin is the =ybegin header line.
type Begin struct {
	// Line is the advertised line length.
	Line int

	// Size is the size of the whole file.
	Size int64

	// Part is the part number, zero for single-part postings.
	Part int

	// Total is the number of parts, zero when not advertised.
	Total int

	// Name is the file name.
	Name string
}

// Part is the =ypart header line of multi-part postings.
type Part struct {
	// Begin is the one-based offset of the first byte of the part.
	Begin int64

	// End is the one-based offset of the last byte of the part.
	End int64
}

// Size returns the number of bytes in the part.
func (p *Part) Size() int64 {
	return p.End - p.Begin + 1
}

// End is the =yend trailer line.
type End struct {
	// Size is the size of the part, or of the file for single-part postings.
	Size int64

	// Part is the part number, zero for single-part postings.
	Part int

	// CRC32 is the checksum of the whole file, when present.
	CRC32 uint32

	// HasCRC32 tells whether CRC32 was present.
	HasCRC32 bool

	// PartCRC32 is the checksum of the part, when present.
	PartCRC32 uint32

	// HasPartCRC32 tells whether PartCRC32 was present.
	HasPartCRC32 bool
}

// Headers contains the envelope lines of a yEnc posting.
type Headers struct {
	Begin Begin

	// Part is nil for single-part postings.
	Part *Part

	// End is nil when the trailer is missing.
	End *End
}

// ParseHeaders parses the =ybegin, =ypart and =yend lines found in raw.
//
// It returns [ErrMissingHeader] when there is no =ybegin line. Unknown keys
// and unparsable values are ignored.
func ParseHeaders(raw []byte) (*Headers, error) {
	start, next, found := findLine(raw, 0, []byte("=ybegin"))
	if !found {
		return nil, ErrMissingHeader
	}
	headers := &Headers{}
	line := trimLine(raw[start+len("=ybegin") : next])
	values, name := keyValues(line)
	headers.Begin = Begin{
		Line:  atoi(values["line"]),
		Size:  atoi64(values["size"]),
		Part:  atoi(values["part"]),
		Total: atoi(values["total"]),
		Name:  name,
	}

	if start, next, found := findLine(raw, next, []byte("=ypart")); found {
		values, _ := keyValues(trimLine(raw[start+len("=ypart") : next]))
		headers.Part = &Part{Begin: atoi64(values["begin"]), End: atoi64(values["end"])}
	}

	if start, next, found := findLine(raw, next, []byte("=yend")); found {
		values, _ := keyValues(trimLine(raw[start+len("=yend") : next]))
		end := &End{Size: atoi64(values["size"]), Part: atoi(values["part"])}
		end.CRC32, end.HasCRC32 = parseCRC(values["crc32"])
		end.PartCRC32, end.HasPartCRC32 = parseCRC(values["pcrc32"])
		headers.End = end
	}
	return headers, nil
}

// Article is a decoded and verified yEnc posting.
type Article struct {
	Headers *Headers
	Data    []byte
}

// DecodeArticle parses the headers in raw, decodes the payload and checks
// the decoded size and CRC32 against those advertised.
//
// The size is taken from the trailer, falling back to the =ypart range or to
// the =ybegin size. Parts are verified with pcrc32, single-part postings
// with crc32. Missing checksums are not an error.
func DecodeArticle(raw []byte) (*Article, error) {
	headers, err := ParseHeaders(raw)
	if err != nil {
		return nil, err
	}
	data, err := DecodeText(raw)
	if err != nil {
		return nil, err
	}
	if want := headers.expectedSize(); want > 0 && int64(len(data)) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSize, len(data), want)
	}
	if want, ok := headers.expectedCRC(); ok {
		if got := crc32.ChecksumIEEE(data); got != want {
			return nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksum, got, want)
		}
	}
	return &Article{Headers: headers, Data: data}, nil
}

func (h *Headers) expectedSize() int64 {
	switch {
	case h.End != nil && h.End.Size > 0:
		return h.End.Size
	case h.Part != nil:
		return h.Part.Size()
	default:
		return h.Begin.Size
	}
}

func (h *Headers) expectedCRC() (uint32, bool) {
	if h.End == nil {
		return 0, false
	}
	if h.Part != nil {
		return h.End.PartCRC32, h.End.HasPartCRC32
	}
	if h.End.HasCRC32 {
		return h.End.CRC32, true
	}
	return h.End.PartCRC32, h.End.HasPartCRC32
}

// keyValues splits "k1=v1 k2=v2 name=file name" into its keys and values.
// The name is everything after "name=" up to the end of the line.
func keyValues(line string) (map[string]string, string) {
	var name string
	if idx := strings.Index(line, "name="); idx >= 0 {
		name = strings.TrimSpace(line[idx+len("name="):])
		line = line[:idx]
	}
	values := make(map[string]string)
	for _, field := range strings.Fields(line) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		values[strings.ToLower(key)] = value
	}
	return values, name
}

func trimLine(line []byte) string {
	return string(bytes.TrimRight(line, "\r\n"))
}

func atoi(value string) int {
	n, _ := strconv.Atoi(value)
	return n
}

func atoi64(value string) int64 {
	n, _ := strconv.ParseInt(value, 10, 64)
	return n
}

func parseCRC(value string) (uint32, bool) {
	if value == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(value), "0x"), 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
