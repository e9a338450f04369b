// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActiveGroup is a line of LIST ACTIVE or NEWGROUPS.
type ActiveGroup struct {
	// Name is the newsgroup name.
	Name string

	// High is the highest article number.
	High uint64

	// Low is the lowest article number.
	Low uint64

	// Status is the posting status: "y", "n", "m" or a "=group" alias.
	Status string
}

// GroupTimes is a line of LIST ACTIVE.TIMES.
type GroupTimes struct {
	// Name is the newsgroup name.
	Name string

	// Created is when the group was created.
	Created time.Time

	// Creator identifies who created the group.
	Creator string
}

// GroupDescription is a line of LIST NEWSGROUPS.
type GroupDescription struct {
	// Name is the newsgroup name.
	Name string

	// Description is the free-form group description.
	Description string
}

// ListActive sends LIST ACTIVE with an optional wildmat and parses the reply.
// Lines that do not parse are skipped.
//
// It requires [StateAuthenticated] or later.
func (s *Session) ListActive(ctx context.Context, wildmat string) ([]ActiveGroup, error) {
	lines, err := s.list(ctx, "LIST ACTIVE", wildmat, StatusListFollows)
	if err != nil {
		return nil, err
	}
	return parseActiveGroups(lines), nil
}

// ListActiveTimes sends LIST ACTIVE.TIMES with an optional wildmat.
//
// It requires [StateAuthenticated] or later.
func (s *Session) ListActiveTimes(ctx context.Context, wildmat string) ([]GroupTimes, error) {
	lines, err := s.list(ctx, "LIST ACTIVE.TIMES", wildmat, StatusListFollows)
	if err != nil {
		return nil, err
	}
	groups := make([]GroupTimes, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		epoch, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		entry := GroupTimes{Name: fields[0], Created: time.Unix(epoch, 0).UTC()}
		if len(fields) > 2 {
			entry.Creator = fields[2]
		}
		groups = append(groups, entry)
	}
	return groups, nil
}

// ListNewsgroups sends LIST NEWSGROUPS with an optional wildmat.
//
// It requires [StateAuthenticated] or later.
func (s *Session) ListNewsgroups(ctx context.Context, wildmat string) ([]GroupDescription, error) {
	lines, err := s.list(ctx, "LIST NEWSGROUPS", wildmat, StatusListFollows)
	if err != nil {
		return nil, err
	}
	groups := make([]GroupDescription, 0, len(lines))
	for _, line := range lines {
		name, description := line, ""
		if idx := strings.IndexAny(line, " \t"); idx >= 0 {
			name, description = line[:idx], strings.TrimSpace(line[idx+1:])
		}
		if name == "" {
			continue
		}
		groups = append(groups, GroupDescription{Name: name, Description: description})
	}
	return groups, nil
}

// NewGroups lists the groups created since the given time.
//
// It requires [StateAuthenticated] or later.
func (s *Session) NewGroups(ctx context.Context, since time.Time) ([]ActiveGroup, error) {
	if err := s.require(StateAuthenticated); err != nil {
		return nil, err
	}
	command := "NEWGROUPS " + formatSince(since)
	_, lines, err := s.roundTrip(ctx, newBlockExchange(command, StatusNewGroupsFollow))
	if err != nil {
		return nil, err
	}
	return parseActiveGroups(lines), nil
}

// NewNews lists the message-ids of the articles posted since the given time
// in the groups matching wildmat. An empty wildmat means the selected group.
//
// It requires [StateGroupSelected].
func (s *Session) NewNews(ctx context.Context, wildmat string, since time.Time) ([]string, error) {
	if err := s.require(StateGroupSelected); err != nil {
		return nil, err
	}
	if wildmat == "" {
		wildmat = s.group.Name
	}
	if !validGroupName(wildmat) {
		return nil, ErrInvalidArgument
	}
	command := "NEWNEWS " + wildmat + " " + formatSince(since)
	_, lines, err := s.roundTrip(ctx, newBlockExchange(command, StatusNewArticlesFollow))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}
	return ids, nil
}

// Capabilities returns the lines of the CAPABILITIES reply.
//
// It requires [StateConnected] or later.
func (s *Session) Capabilities(ctx context.Context) ([]string, error) {
	_, lines, err := s.CommandBlock(ctx, "CAPABILITIES", StatusCapabilitiesFollow)
	return lines, err
}

// Help returns the lines of the HELP reply.
//
// It requires [StateConnected] or later.
func (s *Session) Help(ctx context.Context) ([]string, error) {
	_, lines, err := s.CommandBlock(ctx, "HELP", StatusHelpFollows)
	return lines, err
}

// dateLayout is the yyyymmddhhmmss format of the DATE reply.
const dateLayout = "20060102150405"

// Date returns the server clock in UTC.
//
// It requires [StateConnected] or later.
func (s *Session) Date(ctx context.Context) (time.Time, error) {
	status, err := s.Command(ctx, "DATE", StatusServerDate)
	if err != nil {
		return time.Time{}, err
	}
	fields := strings.Fields(status.Text)
	if len(fields) < 1 {
		return time.Time{}, fmt.Errorf("%w: date line %q", ErrMalformedStatus, status.Text)
	}
	when, err := time.Parse(dateLayout, fields[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date line %q", ErrMalformedStatus, status.Text)
	}
	return when, nil
}

func (s *Session) list(ctx context.Context, command, wildmat string, expected int) ([]string, error) {
	if err := s.require(StateAuthenticated); err != nil {
		return nil, err
	}
	if wildmat != "" {
		if !validGroupName(wildmat) {
			return nil, ErrInvalidArgument
		}
		command += " " + wildmat
	}
	_, lines, err := s.roundTrip(ctx, newBlockExchange(command, expected))
	return lines, err
}

func parseActiveGroups(lines []string) []ActiveGroup {
	groups := make([]ActiveGroup, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		high, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		low, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			continue
		}
		entry := ActiveGroup{Name: fields[0], High: high, Low: low}
		if len(fields) > 3 {
			entry.Status = fields[3]
		}
		groups = append(groups, entry)
	}
	return groups
}

// formatSince formats t as the "yyyymmdd hhmmss GMT" argument of NEWGROUPS
// and NEWNEWS.
func formatSince(t time.Time) string {
	return t.UTC().Format("20060102 150405") + " GMT"
}
