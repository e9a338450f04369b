// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"sort"
	"strings"
)

// PostArticle is an article to submit with POST.
type PostArticle struct {
	// From is the author, e.g. "Jane <jane@example.com>".
	From string

	// Newsgroups is the comma separated list of target groups.
	Newsgroups string

	// Subject is the subject line.
	Subject string

	// Headers contains additional headers such as References.
	Headers map[string]string

	// Body is the article body. Line breaks may be LF or CRLF.
	Body string
}

// encode returns the wire form of the article, including the dot-stuffing
// and the terminating "." line.
func (a *PostArticle) encode() ([]byte, error) {
	var sb strings.Builder
	writeHeader := func(name, value string) bool {
		if !validArgument(name) || !validArgument(value) || strings.ContainsAny(name, ": ") {
			return false
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(value)
		sb.WriteString("\r\n")
		return true
	}
	if !writeHeader("From", a.From) || !writeHeader("Newsgroups", a.Newsgroups) ||
		!writeHeader("Subject", a.Subject) {
		return nil, ErrInvalidArgument
	}
	names := make([]string, 0, len(a.Headers))
	for name := range a.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !writeHeader(name, a.Headers[name]) {
			return nil, ErrInvalidArgument
		}
	}
	sb.WriteString("\r\n")

	body := strings.ReplaceAll(a.Body, "\r\n", "\n")
	body = strings.TrimSuffix(body, "\n")
	if body != "" {
		for _, line := range strings.Split(body, "\n") {
			if strings.HasPrefix(line, ".") {
				sb.WriteString(".")
			}
			sb.WriteString(line)
			sb.WriteString("\r\n")
		}
	}
	sb.WriteString(".\r\n")
	return []byte(sb.String()), nil
}

// Post submits an article: POST must be answered with 340, and the article
// with 240. Two sequential exchanges.
//
// It requires [StateAuthenticated] or later and returns [ErrPostingProhibited]
// without any I/O when the greeting forbade posting.
func (s *Session) Post(ctx context.Context, article *PostArticle) error {
	if err := s.require(StateAuthenticated); err != nil {
		return err
	}
	if !s.postingAllowed {
		return ErrPostingProhibited
	}
	wire, err := article.encode()
	if err != nil {
		return err
	}
	if _, _, err := s.roundTrip(ctx, newExchange("POST", StatusSendArticle)); err != nil {
		return err
	}
	ex := exchange{command: "[article]", wire: wire, expected: StatusArticlePosted}
	_, _, err = s.roundTrip(ctx, ex)
	return err
}
