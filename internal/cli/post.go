// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bassosimone/nntp"
	"github.com/bassosimone/nntp/yenc"
	"github.com/spf13/cobra"
)

func newPostCmd(opts *rootOptions) *cobra.Command {
	var (
		article   nntp.PostArticle
		file      string
		attach    string
		inReplyTo string
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post an article read from --file or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readBody(cmd, file, attach)
			if err != nil {
				return err
			}
			article.Body = body
			if inReplyTo != "" {
				article.Headers = map[string]string{"References": inReplyTo}
			}
			return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
				if err := session.Post(ctx, &article); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "article posted")
				return err
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&article.From, "from", "", "author of the article")
	flags.StringVar(&article.Newsgroups, "newsgroups", "", "comma separated target groups")
	flags.StringVar(&article.Subject, "subject", "", "subject of the article")
	flags.StringVar(&inReplyTo, "references", "", "message-id of the article being answered")
	flags.StringVar(&file, "file", "", "read the body from this file instead of stdin")
	flags.StringVar(&attach, "attach", "", "yEnc encode this file as the body")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("newsgroups")
	cmd.MarkFlagRequired("subject")
	cmd.MarkFlagsMutuallyExclusive("file", "attach")
	return cmd
}

// readBody returns the article body: a yEnc encoded attachment, the content
// of file, or stdin.
func readBody(cmd *cobra.Command, file, attach string) (string, error) {
	switch {
	case attach != "":
		data, err := os.ReadFile(attach)
		if err != nil {
			return "", err
		}
		encoded := yenc.EncodeArticle(filepath.Base(attach), data, yenc.DefaultLineLength)
		return string(encoded), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
