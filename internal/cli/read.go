// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bassosimone/nntp"
	"github.com/spf13/cobra"
)

func newCapabilitiesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Print the server capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
				lines, err := session.Capabilities(ctx)
				if err != nil {
					return err
				}
				return printLines(cmd.OutOrStdout(), lines)
			})
		},
	}
}

func newHelpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "server-help",
		Short: "Print the server HELP text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
				lines, err := session.Help(ctx)
				if err != nil {
					return err
				}
				return printLines(cmd.OutOrStdout(), lines)
			})
		},
	}
}

func newDateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "date",
		Short: "Print the server clock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
				when, err := session.Date(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), when.Format(time.RFC3339))
				return err
			})
		},
	}
}

func newGroupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "group NAME",
		Short: "Select a group and print its article range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
				info, err := session.Group(ctx, args[0])
				if err != nil {
					return err
				}
				return printGroup(cmd.OutOrStdout(), info)
			})
		},
	}
}

func newListGroupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "listgroup NAME [RANGE]",
		Short: "Print the article numbers of a group",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
				var (
					info    nntp.GroupInfo
					numbers []uint64
					err     error
				)
				if len(args) == 2 {
					articles, perr := parseRange(args[1])
					if perr != nil {
						return perr
					}
					info, numbers, err = session.ListGroupRange(ctx, args[0], articles.Low, articles.High)
				} else {
					info, numbers, err = session.ListGroup(ctx, args[0])
				}
				if err != nil {
					return err
				}
				if err := printGroup(cmd.OutOrStdout(), info); err != nil {
					return err
				}
				for _, number := range numbers {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), number); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Run the LIST family of commands",
	}
	listCmd.AddCommand(
		&cobra.Command{
			Use:   "active [WILDMAT]",
			Short: "List groups with their article range and posting status",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
					groups, err := session.ListActive(ctx, firstArg(args))
					if err != nil {
						return err
					}
					for _, group := range groups {
						keyColor.Fprint(cmd.OutOrStdout(), group.Name)
						fmt.Fprintf(cmd.OutOrStdout(), " %d %d %s\n", group.High, group.Low, group.Status)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "newsgroups [WILDMAT]",
			Short: "List groups with their description",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
					groups, err := session.ListNewsgroups(ctx, firstArg(args))
					if err != nil {
						return err
					}
					for _, group := range groups {
						keyColor.Fprint(cmd.OutOrStdout(), group.Name)
						fmt.Fprintf(cmd.OutOrStdout(), "\t%s\n", group.Description)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "times [WILDMAT]",
			Short: "List groups with their creation time and creator",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
					groups, err := session.ListActiveTimes(ctx, firstArg(args))
					if err != nil {
						return err
					}
					for _, group := range groups {
						keyColor.Fprint(cmd.OutOrStdout(), group.Name)
						fmt.Fprintf(cmd.OutOrStdout(), " %s %s\n", group.Created.Format(time.RFC3339), group.Creator)
					}
					return nil
				})
			},
		},
	)
	return listCmd
}

func newXoverCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "xover GROUP RANGE",
		Short: "Print the overview of a range of articles (N, N-M, N-, -M or <message-id>)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			articles, err := parseRange(args[1])
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
				if _, err := session.Group(ctx, args[0]); err != nil {
					return err
				}
				result, err := session.Xover(ctx, articles)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !result.Schema.Standard {
					warnColor.Fprintln(out, "non-standard overview format, printing raw lines")
					return printLines(out, result.Lines)
				}
				for _, record := range result.Records {
					headingColor.Fprintf(out, "Article: %d\n", record.Number)
					for _, field := range record.Fields {
						keyColor.Fprintf(out, "%s: ", field.Name)
						fmt.Fprintln(out, field.Value)
					}
				}
				return nil
			})
		},
	}
}

func newArticleCmd(opts *rootOptions, verb string) *cobra.Command {
	var (
		decode bool
		output string
	)
	cmd := &cobra.Command{
		Use:   verb + " GROUP ID",
		Short: "Print the " + verb + " of an article by number or message-id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
				if _, err := session.Group(ctx, args[0]); err != nil {
					return err
				}
				if decode {
					return saveDecodedBody(ctx, cmd, session, args[1], output)
				}
				var (
					response *nntp.ArticleResponse
					err      error
				)
				switch verb {
				case "head":
					response, err = session.Head(ctx, args[1])
				case "body":
					response, err = session.Body(ctx, args[1])
				default:
					response, err = session.Article(ctx, args[1])
				}
				if err != nil {
					return err
				}
				return printLines(cmd.OutOrStdout(), response.Lines)
			})
		},
	}
	if verb == "body" {
		cmd.Flags().BoolVar(&decode, "yenc", false, "decode the yEnc payload of the body")
		cmd.Flags().StringVar(&output, "out", "", "write the decoded payload to this file")
	}
	return cmd
}

func saveDecodedBody(ctx context.Context, cmd *cobra.Command, session *nntp.Session, id, output string) error {
	if output == "" {
		data, err := session.BodyDecoded(ctx, id)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	data, err := session.SaveBody(ctx, id, output)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(data), output)
	return err
}

func newStatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stat GROUP ID",
		Short: "Check whether an article exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, session *nntp.Session) error {
				if _, err := session.Group(ctx, args[0]); err != nil {
					return err
				}
				ref, err := session.Stat(ctx, args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", ref.Number, ref.MessageID)
				return err
			})
		},
	}
}

// parseRange parses N, N-M, N-, -M or a message-id.
func parseRange(value string) (nntp.OverviewRange, error) {
	if strings.HasPrefix(value, "<") {
		return nntp.ByMessageID(value), nil
	}
	low, high, isRange := strings.Cut(value, "-")
	parse := func(s string) (uint64, error) {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid article range %q", value)
		}
		return n, nil
	}
	switch {
	case !isRange:
		n, err := parse(low)
		return nntp.ByNumber(n), err
	case low == "":
		n, err := parse(high)
		return nntp.UntilNumber(n), err
	case high == "":
		n, err := parse(low)
		return nntp.SinceNumber(n), err
	default:
		from, err := parse(low)
		if err != nil {
			return nntp.OverviewRange{}, err
		}
		to, err := parse(high)
		return nntp.ByRange(from, to), err
	}
}

func printGroup(out io.Writer, info nntp.GroupInfo) error {
	headingColor.Fprintln(out, info.Name)
	_, err := fmt.Fprintf(out, "count=%d low=%d high=%d\n", info.EstimatedCount, info.Low, info.High)
	return err
}

func printLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
