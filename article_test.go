// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bassosimone/nntp/yenc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArticleRef(t *testing.T) {
	assert.Equal(t, ArticleRef{Number: 3000, MessageID: "<45223423@example.com>"},
		parseArticleRef("3000 <45223423@example.com> article retrieved"))
	assert.Equal(t, ArticleRef{MessageID: "<a@b>"}, parseArticleRef("0 <a@b>"))
	assert.Equal(t, ArticleRef{Number: 7}, parseArticleRef("7 text follows"))
	assert.Equal(t, ArticleRef{}, parseArticleRef(""))
}

func TestSessionArticle(t *testing.T) {
	session, written := newGroupSession(t,
		"220 3000 <45223423@example.com>\r\n"+
			"Subject: Re: hi\r\n"+
			"From: jo@example.com\r\n"+
			"\r\n"+
			"..leading dot\r\n"+
			"second line\r\n"+
			".\r\n")

	response, err := session.Article(context.Background(), "3000")

	require.NoError(t, err)
	assert.Equal(t, "ARTICLE 3000\r\n", written.String())
	assert.Equal(t, uint64(3000), response.Number)
	assert.Equal(t, "<45223423@example.com>", response.MessageID)

	header, err := response.Header()
	require.NoError(t, err)
	assert.Equal(t, "Re: hi", header.Get("Subject"))
	assert.Equal(t, "jo@example.com", header.Get("From"))
	assert.Equal(t, []string{".leading dot", "second line"}, response.Body())
}

func TestSessionHeadAndBody(t *testing.T) {
	session, written := newGroupSession(t,
		"221 0 <a@example.com>\r\nSubject: x\r\n.\r\n",
		"222 0 <a@example.com>\r\nhello\r\n.\r\n",
	)

	head, err := session.Head(context.Background(), "<a@example.com>")
	require.NoError(t, err)
	header, err := head.Header()
	require.NoError(t, err)
	assert.Equal(t, "x", header.Get("Subject"))
	assert.Empty(t, head.Body())

	body, err := session.Body(context.Background(), "<a@example.com>")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, body.Body())
	assert.Equal(t, "hello\r\n", body.Text())
	emptyHeader, err := body.Header()
	require.NoError(t, err)
	assert.Empty(t, emptyHeader)

	assert.Equal(t, "HEAD <a@example.com>\r\nBODY <a@example.com>\r\n", written.String())
}

func TestSessionArticleMissing(t *testing.T) {
	session, _ := newGroupSession(t, "430 no such article\r\n", "223 10 <b@example.com>\r\n")

	_, err := session.Article(context.Background(), "<missing@example.com>")
	assert.Equal(t, StatusNoArticleWithID, StatusCode(err))

	// the connection is still usable
	ref, err := session.Stat(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, ArticleRef{Number: 10, MessageID: "<b@example.com>"}, ref)
}

func TestSessionNextLast(t *testing.T) {
	session, written := newGroupSession(t,
		"223 101 <n@example.com>\r\n",
		"421 no next article\r\n",
		"223 100 <p@example.com>\r\n",
	)

	ref, err := session.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(101), ref.Number)

	_, err = session.Next(context.Background())
	assert.True(t, IsBoundary(err))

	ref, err = session.Last(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), ref.Number)

	assert.Equal(t, "NEXT\r\nNEXT\r\nLAST\r\n", written.String())
}

func TestSessionArticleInvalidID(t *testing.T) {
	session, written := newGroupSession(t)

	_, err := session.Article(context.Background(), "1 2")

	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, written.Len())
}

func TestSessionBodyDecoded(t *testing.T) {
	payload := []byte("binary \x00\x01\xff payload")
	encoded := string(yenc.EncodeArticle("file.bin", payload, yenc.DefaultLineLength))
	session, _ := newGroupSession(t, "222 0 <y@example.com>\r\n"+encoded+".\r\n")

	path := filepath.Join(t.TempDir(), "file.bin")
	data, err := session.SaveBody(context.Background(), "<y@example.com>", path)

	require.NoError(t, err)
	assert.Equal(t, payload, data)
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, onDisk)
}

func TestSessionBodyDecodedNoPayload(t *testing.T) {
	session, _ := newGroupSession(t, "222 0 <t@example.com>\r\njust text\r\n.\r\n")

	_, err := session.BodyDecoded(context.Background(), "<t@example.com>")

	require.ErrorIs(t, err, yenc.ErrEmptyOrNotFound)
}
