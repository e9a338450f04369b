// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/textproto"
	"os"
	"strconv"
	"strings"

	"github.com/bassosimone/nntp/yenc"
)

// ArticleRef identifies an article by number and message-id, as returned
// by STAT, LAST, NEXT and by the first line of ARTICLE, HEAD and BODY.
type ArticleRef struct {
	// Number is the article number in the selected group, or zero
	// when the article was requested by message-id.
	Number uint64

	// MessageID is the message-id including the angle brackets.
	MessageID string
}

// parseArticleRef parses the "n <message-id>" prefix of a status text.
// Missing or unparsable fields are left empty.
func parseArticleRef(text string) ArticleRef {
	var ref ArticleRef
	fields := strings.Fields(text)
	if len(fields) > 0 {
		ref.Number, _ = strconv.ParseUint(fields[0], 10, 64)
	}
	if len(fields) > 1 && strings.HasPrefix(fields[1], "<") {
		ref.MessageID = fields[1]
	}
	return ref
}

// articlePart tells which part of the article a response carries.
type articlePart int

const (
	articlePartAll = articlePart(iota)
	articlePartHead
	articlePartBody
)

// ArticleResponse is the result of ARTICLE, HEAD or BODY.
type ArticleResponse struct {
	// Number is the article number, zero when fetched by message-id
	// and the server did not report it.
	Number uint64

	// MessageID is the message-id including the angle brackets.
	MessageID string

	// Lines contains the unstuffed lines of the block.
	Lines []string

	part articlePart
}

func newArticleResponse(status StatusLine, lines []string, part articlePart) *ArticleResponse {
	ref := parseArticleRef(status.Text)
	return &ArticleResponse{
		Number:    ref.Number,
		MessageID: ref.MessageID,
		Lines:     lines,
		part:      part,
	}
}

// split returns the header lines and the body lines.
func (ar *ArticleResponse) split() (header, body []string) {
	switch ar.part {
	case articlePartHead:
		return ar.Lines, nil
	case articlePartBody:
		return nil, ar.Lines
	}
	for idx, line := range ar.Lines {
		if line == "" {
			return ar.Lines[:idx], ar.Lines[idx+1:]
		}
	}
	return ar.Lines, nil
}

// Header parses the header lines. A BODY response has an empty header.
func (ar *ArticleResponse) Header() (textproto.MIMEHeader, error) {
	lines, _ := ar.split()
	if len(lines) == 0 {
		return textproto.MIMEHeader{}, nil
	}
	raw := strings.Join(lines, "\r\n") + "\r\n\r\n"
	reader := textproto.NewReader(bufio.NewReader(strings.NewReader(raw)))
	header, err := reader.ReadMIMEHeader()
	if err != nil && !errors.Is(err, io.EOF) {
		return header, err
	}
	return header, nil
}

// Body returns the body lines. A HEAD response has an empty body.
func (ar *ArticleResponse) Body() []string {
	_, body := ar.split()
	return body
}

// Text joins the lines with CRLF, restoring the raw block without the
// dot-stuffing and the terminator.
func (ar *ArticleResponse) Text() string {
	return joinLines(ar.Lines)
}

// Article retrieves a whole article. The id is a message-id, an article
// number, or empty for the current article.
//
// It requires [StateGroupSelected].
func (s *Session) Article(ctx context.Context, id string) (*ArticleResponse, error) {
	return s.fetchArticle(ctx, "ARTICLE", id, StatusArticleFollows, articlePartAll)
}

// Head retrieves the headers of an article. See [Session.Article].
func (s *Session) Head(ctx context.Context, id string) (*ArticleResponse, error) {
	return s.fetchArticle(ctx, "HEAD", id, StatusHeadFollows, articlePartHead)
}

// Body retrieves the body of an article. See [Session.Article].
func (s *Session) Body(ctx context.Context, id string) (*ArticleResponse, error) {
	return s.fetchArticle(ctx, "BODY", id, StatusBodyFollows, articlePartBody)
}

// BodyDecoded retrieves the body of an article and decodes the yEnc payload
// it embeds. See [yenc.DecodeText] for the decoding errors.
func (s *Session) BodyDecoded(ctx context.Context, id string) ([]byte, error) {
	response, err := s.Body(ctx, id)
	if err != nil {
		return nil, err
	}
	return yenc.DecodeText([]byte(response.Text()))
}

// SaveBody is like [Session.BodyDecoded] and writes the decoded bytes to path.
func (s *Session) SaveBody(ctx context.Context, id, path string) ([]byte, error) {
	data, err := s.BodyDecoded(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Session) fetchArticle(ctx context.Context,
	verb, id string, expected int, part articlePart) (*ArticleResponse, error) {
	command, err := s.articleCommand(verb, id)
	if err != nil {
		return nil, err
	}
	status, lines, err := s.roundTrip(ctx, newBlockExchange(command, expected))
	if err != nil {
		return nil, err
	}
	return newArticleResponse(status, lines, part), nil
}

// Stat checks whether an article exists and selects it. See [Session.Article].
func (s *Session) Stat(ctx context.Context, id string) (ArticleRef, error) {
	command, err := s.articleCommand("STAT", id)
	if err != nil {
		return ArticleRef{}, err
	}
	return s.moveArticle(ctx, command)
}

// Next selects the next article in the group. At the end of the group it
// fails with a [*ProtocolError] recognized by [IsBoundary].
//
// It requires [StateGroupSelected].
func (s *Session) Next(ctx context.Context) (ArticleRef, error) {
	if err := s.require(StateGroupSelected); err != nil {
		return ArticleRef{}, err
	}
	return s.moveArticle(ctx, "NEXT")
}

// Last selects the previous article in the group. At the start of the group
// it fails with a [*ProtocolError] recognized by [IsBoundary].
//
// It requires [StateGroupSelected].
func (s *Session) Last(ctx context.Context) (ArticleRef, error) {
	if err := s.require(StateGroupSelected); err != nil {
		return ArticleRef{}, err
	}
	return s.moveArticle(ctx, "LAST")
}

func (s *Session) moveArticle(ctx context.Context, command string) (ArticleRef, error) {
	status, _, err := s.roundTrip(ctx, newExchange(command, StatusArticleExists))
	if err != nil {
		return ArticleRef{}, err
	}
	return parseArticleRef(status.Text), nil
}

func (s *Session) articleCommand(verb, id string) (string, error) {
	if err := s.require(StateGroupSelected); err != nil {
		return "", err
	}
	switch {
	case id == "":
		return verb, nil
	case strings.ContainsAny(id, " \t\r\n"):
		return "", ErrInvalidArgument
	default:
		return verb + " " + id, nil
	}
}

// joinLines joins lines with CRLF, terminating the last line as well.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}
