// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// StandardOverviewFields is the RFC 3977 overview field order, following
// the article number.
var StandardOverviewFields = []string{
	"Subject", "From", "Date", "Message-ID", "References", "Bytes", "Lines", "Xref",
}

// OverviewSchema is the overview field order advertised by the server.
type OverviewSchema struct {
	// Fields contains the field names in order. For a standard layout
	// these are [StandardOverviewFields].
	Fields []string

	// Standard is true when the server advertised exactly the eight
	// standard fields, which is when records can be trusted.
	Standard bool
}

// ParseOverviewFormat builds the schema from the lines of the LIST
// OVERVIEW.FMT block (status line and terminator excluded).
//
// Only the number of lines is significant: eight lines select the standard
// layout, anything else is a custom layout whose names are kept as advertised
// without the colons and the ":full" suffix.
func ParseOverviewFormat(lines []string) OverviewSchema {
	if len(lines) == len(StandardOverviewFields) {
		return OverviewSchema{Fields: StandardOverviewFields, Standard: true}
	}
	fields := make([]string, 0, len(lines))
	for _, line := range lines {
		name := strings.TrimSpace(line)
		name = strings.TrimSuffix(name, ":full")
		name = strings.Trim(name, ":")
		fields = append(fields, name)
	}
	return OverviewSchema{Fields: fields, Standard: false}
}

// OverviewField is a named overview value.
type OverviewField struct {
	Name  string
	Value string
}

// OverviewRecord is one line of an XOVER or OVER block.
type OverviewRecord struct {
	// Number is the article number.
	Number uint64

	// Fields contains the values in schema order. A short line
	// yields fewer fields than the schema.
	Fields []OverviewField
}

// Get returns the value of the named field, matched case-insensitively.
func (r *OverviewRecord) Get(name string) (string, bool) {
	for _, field := range r.Fields {
		if strings.EqualFold(field.Name, name) {
			return field.Value, true
		}
	}
	return "", false
}

// ParseOverviewBlock parses the lines of an overview block using schema.
//
// Each line is split on tabs: the first token is the article number and the
// following tokens map by position onto the schema fields, the last of which
// is Xref for the standard layout. Lines whose number does not parse are
// skipped, extra tokens are ignored, and short lines yield partial records.
// An empty block yields an empty slice.
func ParseOverviewBlock(schema OverviewSchema, lines []string) []OverviewRecord {
	records := make([]OverviewRecord, 0, len(lines))
	for _, line := range lines {
		tokens := strings.Split(line, "\t")
		number, err := strconv.ParseUint(strings.TrimSpace(tokens[0]), 10, 64)
		if err != nil {
			continue
		}
		values := tokens[1:]
		count := min(len(values), len(schema.Fields))
		record := OverviewRecord{Number: number, Fields: make([]OverviewField, 0, count)}
		for idx := 0; idx < count; idx++ {
			record.Fields = append(record.Fields, OverviewField{Name: schema.Fields[idx], Value: values[idx]})
		}
		records = append(records, record)
	}
	return records
}

// BlockCommander sends a command and reads a dot-terminated block.
//
// The [*Session] type satisfies this interface.
type BlockCommander interface {
	CommandBlock(ctx context.Context, command string, expected int) (StatusLine, []string, error)
}

var _ BlockCommander = &Session{}

// OverviewCatalog caches the overview schema of one connection.
//
// The zero value is ready to use and holds no schema.
type OverviewCatalog struct {
	schema *OverviewSchema
}

// Schema returns the cached schema, if any.
func (c *OverviewCatalog) Schema() (OverviewSchema, bool) {
	if c.schema == nil {
		return OverviewSchema{}, false
	}
	return *c.schema, true
}

// EnsureSchema sends LIST OVERVIEW.FMT unless the schema is cached.
//
// A [*ProtocolError] means that the server does not describe its overview:
// the returned schema is non-standard, it is not cached, and the error is
// not returned. Other errors are returned as is.
func (c *OverviewCatalog) EnsureSchema(ctx context.Context, cmd BlockCommander) (OverviewSchema, error) {
	if c.schema != nil {
		return *c.schema, nil
	}
	_, lines, err := cmd.CommandBlock(ctx, "LIST OVERVIEW.FMT", StatusListFollows)
	var protoErr *ProtocolError
	switch {
	case errors.As(err, &protoErr):
		return OverviewSchema{Standard: false}, nil
	case err != nil:
		return OverviewSchema{}, err
	}
	schema := ParseOverviewFormat(lines)
	c.schema = &schema
	return schema, nil
}

// OverviewRangeKind selects the form of an [OverviewRange].
type OverviewRangeKind int

const (
	// OverviewCurrent is the current article.
	OverviewCurrent = OverviewRangeKind(iota)

	// OverviewMessageID is a single article by message-id.
	OverviewMessageID

	// OverviewNumber is a single article by number.
	OverviewNumber

	// OverviewInterval is the articles from Low to High inclusive.
	OverviewInterval

	// OverviewSince is Low and all the newer articles.
	OverviewSince

	// OverviewUntil is High and all the older articles.
	OverviewUntil
)

// OverviewRange is the argument of XOVER and OVER.
//
// Build using [CurrentArticle], [ByMessageID], [ByNumber], [ByRange],
// [SinceNumber] or [UntilNumber].
type OverviewRange struct {
	Kind      OverviewRangeKind
	MessageID string
	Low       uint64
	High      uint64
}

// CurrentArticle returns the range selecting the current article.
func CurrentArticle() OverviewRange {
	return OverviewRange{Kind: OverviewCurrent}
}

// ByMessageID returns the range selecting the article with the given message-id.
func ByMessageID(id string) OverviewRange {
	return OverviewRange{Kind: OverviewMessageID, MessageID: id}
}

// ByNumber returns the range selecting the given article.
func ByNumber(number uint64) OverviewRange {
	return OverviewRange{Kind: OverviewNumber, Low: number, High: number}
}

// ByRange returns the range selecting the articles from low to high.
func ByRange(low, high uint64) OverviewRange {
	return OverviewRange{Kind: OverviewInterval, Low: low, High: high}
}

// SinceNumber returns the range selecting number and the newer articles.
func SinceNumber(number uint64) OverviewRange {
	return OverviewRange{Kind: OverviewSince, Low: number}
}

// UntilNumber returns the range selecting number and the older articles.
func UntilNumber(number uint64) OverviewRange {
	return OverviewRange{Kind: OverviewUntil, High: number}
}

// String returns the command argument, empty for [OverviewCurrent].
func (r OverviewRange) String() string {
	switch r.Kind {
	case OverviewMessageID:
		return r.MessageID
	case OverviewNumber:
		return strconv.FormatUint(r.Low, 10)
	case OverviewInterval:
		return formatRange(r.Low, r.High)
	case OverviewSince:
		return strconv.FormatUint(r.Low, 10) + "-"
	case OverviewUntil:
		return "-" + strconv.FormatUint(r.High, 10)
	default:
		return ""
	}
}

// OverviewResult is the result of [Session.Xover].
type OverviewResult struct {
	// Schema is the schema used for parsing.
	Schema OverviewSchema

	// Records contains the parsed records. It is nil when the layout
	// is not standard, in which case only Lines is meaningful.
	Records []OverviewRecord

	// Lines contains the raw lines of the block.
	Lines []string
}

// Raw returns the block joined with CRLF.
func (r *OverviewResult) Raw() string {
	return joinLines(r.Lines)
}

// Xover retrieves the overview of the articles in the given range.
//
// When the server rejects XOVER as an unknown command, the request is sent
// once more with OVER. The schema is negotiated on first use and cached for
// the connection lifetime. When the negotiation fails, the returned result
// holds the raw Lines under a non-standard schema alongside the error.
//
// It requires [StateGroupSelected].
func (s *Session) Xover(ctx context.Context, articles OverviewRange) (*OverviewResult, error) {
	if err := s.require(StateGroupSelected); err != nil {
		return nil, err
	}
	argument := articles.String()
	if !validArgument(argument) || strings.ContainsAny(argument, " \t") {
		return nil, ErrInvalidArgument
	}
	lines, err := s.overview(ctx, "XOVER", argument)
	if StatusCode(err) == StatusUnknownCommand {
		lines, err = s.overview(ctx, "OVER", argument)
	}
	if err != nil {
		return nil, err
	}
	schema, err := s.catalog.EnsureSchema(ctx, s)
	if err != nil {
		return &OverviewResult{Lines: lines}, err
	}
	result := &OverviewResult{Schema: schema, Lines: lines}
	if schema.Standard {
		result.Records = ParseOverviewBlock(schema, lines)
	}
	return result, nil
}

// OverviewSchema returns the overview schema of this connection.
//
// It requires [StateConnected] or later.
func (s *Session) OverviewSchema(ctx context.Context) (OverviewSchema, error) {
	if err := s.require(StateConnected); err != nil {
		return OverviewSchema{}, err
	}
	return s.catalog.EnsureSchema(ctx, s)
}

func (s *Session) overview(ctx context.Context, verb, argument string) ([]string, error) {
	command := verb
	if argument != "" {
		command += " " + argument
	}
	_, lines, err := s.roundTrip(ctx, newBlockExchange(command, StatusOverviewFollows))
	return lines, err
}
