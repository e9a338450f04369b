// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/bassosimone/nntp/headerstore"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newFetchHeadersCmd(opts *rootOptions) *cobra.Command {
	var (
		concurrency int
		options     headerstore.ForwardOptions
	)
	cmd := &cobra.Command{
		Use:   "fetch-headers GROUP...",
		Short: "Fetch the overview of new articles into the header database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("invalid --concurrency %d", concurrency)
			}
			if err := os.MkdirAll(filepath.Dir(opts.settings.Database), 0o700); err != nil {
				return err
			}
			store, err := headerstore.Open(opts.settings.Database)
			if err != nil {
				return err
			}
			defer store.Close()
			options.Logger = opts.logger(cmd)

			ctx, cancel := commandContext(cmd)
			defer cancel()

			// one session per group, at most concurrency at a time
			var mu sync.Mutex
			out := cmd.OutOrStdout()
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(concurrency)
			for _, group := range args {
				g.Go(func() error {
					session, err := opts.connect(gctx, cmd)
					if err != nil {
						return err
					}
					defer session.Disconnect(gctx)
					result, err := headerstore.Forward(gctx, session, store, group, options)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						warnColor.Fprintf(out, "%s: %s\n", group, err)
						return fmt.Errorf("%s: %w", group, err)
					}
					printForward(out, result)
					return nil
				})
			}
			return g.Wait()
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&concurrency, "concurrency", 4, "number of groups fetched in parallel")
	flags.Uint64Var(&options.InitialBackfill, "backfill", headerstore.DefaultInitialBackfill,
		"articles fetched the first time a group is seen")
	flags.Uint64Var(&options.BatchSize, "batch", headerstore.DefaultBatchSize, "articles per XOVER request")
	return cmd
}

func printForward(out io.Writer, result headerstore.ForwardResult) {
	headingColor.Fprint(out, result.Group.Name)
	if result.From == 0 {
		fmt.Fprintln(out, ": up to date")
		return
	}
	fmt.Fprintf(out, ": %d records (%d-%d)\n", result.Records, result.From, result.To)
}
