// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// GroupInfo describes a newsgroup as returned by GROUP or LISTGROUP.
type GroupInfo struct {
	// Name is the newsgroup name.
	Name string

	// EstimatedCount is the server estimate of the number of articles.
	EstimatedCount uint64

	// Low is the lowest article number.
	Low uint64

	// High is the highest article number.
	High uint64
}

// ParseGroupLine parses a 211 response of the form "211 count low high name".
//
// The line terminator is optional.
func ParseGroupLine(line string) (GroupInfo, error) {
	line = strings.TrimRight(line, "\r\n")
	status, err := ParseStatusLine(line)
	if err != nil {
		return GroupInfo{}, &ProtocolError{Expected: StatusGroupSelected, Actual: 0, Line: line}
	}
	if status.Code != StatusGroupSelected {
		return GroupInfo{}, &ProtocolError{Expected: StatusGroupSelected, Actual: status.Code, Line: line}
	}
	return parseGroupText(status.Text)
}

func parseGroupText(text string) (GroupInfo, error) {
	fields := strings.Fields(text)
	if len(fields) < 4 {
		return GroupInfo{}, fmt.Errorf("%w: group line %q", ErrMalformedStatus, text)
	}
	var numbers [3]uint64
	for idx := range numbers {
		value, err := strconv.ParseUint(fields[idx], 10, 64)
		if err != nil {
			return GroupInfo{}, fmt.Errorf("%w: group line %q", ErrMalformedStatus, text)
		}
		numbers[idx] = value
	}
	info := GroupInfo{
		Name:           fields[3],
		EstimatedCount: numbers[0],
		Low:            numbers[1],
		High:           numbers[2],
	}
	return info, nil
}

// Group selects a newsgroup and moves to [StateGroupSelected].
//
// It requires [StateAuthenticated] or later. On failure the previously
// selected group and the state are retained.
func (s *Session) Group(ctx context.Context, name string) (GroupInfo, error) {
	if err := s.require(StateAuthenticated); err != nil {
		return GroupInfo{}, err
	}
	if !validGroupName(name) {
		return GroupInfo{}, ErrInvalidArgument
	}
	status, _, err := s.roundTrip(ctx, newExchange("GROUP "+name, StatusGroupSelected))
	if err != nil {
		return GroupInfo{}, err
	}
	info, err := parseGroupText(status.Text)
	if err != nil {
		return GroupInfo{}, err
	}
	s.selectGroup(info)
	return info, nil
}

// ListGroup selects a newsgroup like [Session.Group] and returns the numbers
// of its articles. An empty name lists the selected group.
func (s *Session) ListGroup(ctx context.Context, name string) (GroupInfo, []uint64, error) {
	return s.listGroup(ctx, name, "")
}

// ListGroupRange is like [Session.ListGroup] restricted to the given
// article numbers. A zero high means "up to the last article".
func (s *Session) ListGroupRange(ctx context.Context, name string, low, high uint64) (GroupInfo, []uint64, error) {
	if name == "" {
		name = s.group.Name
	}
	return s.listGroup(ctx, name, formatRange(low, high))
}

func (s *Session) listGroup(ctx context.Context, name, articleRange string) (GroupInfo, []uint64, error) {
	if err := s.require(StateAuthenticated); err != nil {
		return GroupInfo{}, nil, err
	}
	if name == "" && s.state != StateGroupSelected {
		return GroupInfo{}, nil, &StateError{Required: StateGroupSelected, Actual: s.state}
	}
	if name != "" && !validGroupName(name) {
		return GroupInfo{}, nil, ErrInvalidArgument
	}
	command := "LISTGROUP"
	if name != "" {
		command += " " + name
	}
	if articleRange != "" {
		command += " " + articleRange
	}
	status, lines, err := s.roundTrip(ctx, newBlockExchange(command, StatusGroupSelected))
	if err != nil {
		return GroupInfo{}, nil, err
	}
	info, err := parseGroupText(status.Text)
	if err != nil {
		return GroupInfo{}, nil, err
	}
	s.selectGroup(info)
	numbers := make([]uint64, 0, len(lines))
	for _, line := range lines {
		value, err := strconv.ParseUint(strings.TrimSpace(line), 10, 64)
		if err != nil {
			continue
		}
		numbers = append(numbers, value)
	}
	return info, numbers, nil
}

func (s *Session) selectGroup(info GroupInfo) {
	s.group = info
	s.state = StateGroupSelected
}

func validGroupName(name string) bool {
	return name != "" && !strings.ContainsAny(name, " \t\r\n")
}

// formatRange formats an article range: "low-high", or "low-" when high is zero.
func formatRange(low, high uint64) string {
	if high == 0 {
		return strconv.FormatUint(low, 10) + "-"
	}
	return strconv.FormatUint(low, 10) + "-" + strconv.FormatUint(high, 10)
}
