// SPDX-License-Identifier: GPL-3.0-or-later

package headerstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bassosimone/nntp"
)

// ErrUnstructuredOverview indicates that the server overview layout is not
// the standard one, so the records cannot be stored.
var ErrUnstructuredOverview = errors.New("headerstore: server overview layout is not standard")

const (
	// DefaultInitialBackfill is how many articles below the newest are fetched
	// the first time a group is seen.
	DefaultInitialBackfill = 20000

	// DefaultBatchSize is the number of articles requested per XOVER.
	DefaultBatchSize = 1000
)

// Fetcher is the part of [*nntp.Session] used by [Forward].
type Fetcher interface {
	Group(ctx context.Context, name string) (nntp.GroupInfo, error)
	Xover(ctx context.Context, articles nntp.OverviewRange) (*nntp.OverviewResult, error)
}

var _ Fetcher = &nntp.Session{}

// ForwardOptions configures [Forward].
type ForwardOptions struct {
	// InitialBackfill is the number of articles fetched for a new group.
	// Zero selects [DefaultInitialBackfill].
	InitialBackfill uint64

	// BatchSize is the number of articles per XOVER. Zero selects
	// [DefaultBatchSize].
	BatchSize uint64

	// Logger receives one event per batch. Nil disables logging.
	Logger nntp.SLogger

	// TimeNow returns the current time. Nil selects [time.Now].
	TimeNow func() time.Time
}

// ForwardResult summarizes a [Forward] run.
type ForwardResult struct {
	// Group is the group information returned by GROUP.
	Group nntp.GroupInfo

	// From is the first article requested, zero when up to date.
	From uint64

	// To is the last article requested, zero when up to date.
	To uint64

	// Records is the number of records stored.
	Records int
}

// Forward selects group, fetches the overview of the articles newer than
// those already stored and saves them in the store.
//
// A group without stored articles starts InitialBackfill articles below the
// newest one. Articles are requested in batches and the last article number
// is raised after each batch, so an interrupted run resumes where it stopped.
func Forward(ctx context.Context, fetcher Fetcher, store *Store,
	group string, options ForwardOptions) (ForwardResult, error) {
	options = options.withDefaults()

	info, err := fetcher.Group(ctx, group)
	if err != nil {
		return ForwardResult{}, err
	}
	result := ForwardResult{Group: info}
	if err := store.SaveGroup(info); err != nil {
		return result, err
	}

	last, found, err := store.LastArticle(group)
	if err != nil {
		return result, err
	}
	from, ok := forwardStart(info, last, found, options.InitialBackfill)
	if !ok {
		return result, nil
	}
	result.From, result.To = from, info.High

	for low := from; low <= info.High; {
		high := min(low+options.BatchSize-1, info.High)
		count, err := forwardBatch(ctx, fetcher, store, group, low, high, options)
		result.Records += count
		if err != nil {
			return result, err
		}
		if high == info.High {
			break
		}
		low = high + 1
	}
	return result, nil
}

// forwardStart returns the first article to fetch, or false when the store
// is up to date.
func forwardStart(info nntp.GroupInfo, last uint64, found bool, backfill uint64) (uint64, bool) {
	if info.High == 0 || info.High < info.Low {
		return 0, false
	}
	if found {
		if last >= info.High {
			return 0, false
		}
		return max(last+1, info.Low), true
	}
	from := info.Low
	if info.High >= backfill && info.High-backfill+1 > from {
		from = info.High - backfill + 1
	}
	return from, true
}

func forwardBatch(ctx context.Context, fetcher Fetcher, store *Store,
	group string, low, high uint64, options ForwardOptions) (int, error) {
	t0 := options.TimeNow()
	overview, err := fetcher.Xover(ctx, nntp.ByRange(low, high))
	count := 0
	if err == nil && !overview.Schema.Standard {
		err = ErrUnstructuredOverview
	}
	if err == nil {
		count = len(overview.Records)
		err = store.SaveRecords(group, overview.Records)
	}
	if err == nil {
		err = store.RaiseLastArticle(group, high)
	}
	options.Logger.Info(
		"headerForwardBatch",
		slog.Any("err", err),
		slog.String("group", group),
		slog.Uint64("high", high),
		slog.Uint64("low", low),
		slog.Int("records", count),
		slog.Time("t0", t0),
		slog.Time("t", options.TimeNow()),
	)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (o ForwardOptions) withDefaults() ForwardOptions {
	if o.InitialBackfill == 0 {
		o.InitialBackfill = DefaultInitialBackfill
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Logger == nil {
		o.Logger = nntp.DefaultSLogger()
	}
	if o.TimeNow == nil {
		o.TimeNow = time.Now
	}
	return o
}
