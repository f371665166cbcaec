package nowplaying

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Listener is a channel member whose track may be looked up.
type Listener struct {
	Identity string
	Label    string
}

// resolver is satisfied by *Resolver.
type resolver interface {
	Resolve(ctx context.Context, q Query) (Result, error)
}

// Aggregator resolves every listener of a channel concurrently.
type Aggregator struct {
	resolver resolver
	limit    int
	timeout  time.Duration
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithConcurrency caps in-flight resolutions. Zero or less means no cap.
func WithConcurrency(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.limit = n
	}
}

// WithListenerTimeout bounds each listener's resolution.
func WithListenerTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.timeout = d
	}
}

type outcome struct {
	index int
	line  string
}

// NewAggregator creates an Aggregator backed by r.
func NewAggregator(r resolver, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{resolver: r}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns one line per listener with a resolved track, in the
// order listeners were given. A listener whose resolution fails, or is
// still pending when ctx is done, is left out without affecting the
// others. An empty channel yields an empty slice.
func (a *Aggregator) Aggregate(ctx context.Context, listeners []Listener) []string {
	// Buffered so stragglers never block after Aggregate has returned.
	outcomes := make(chan outcome, len(listeners))

	go func() {
		var g errgroup.Group
		if a.limit > 0 {
			g.SetLimit(a.limit)
		}
		for i, l := range listeners {
			g.Go(func() error {
				outcomes <- outcome{index: i, line: a.resolveOne(ctx, l)}
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // tasks never return errors
	}()

	lines := make([]string, len(listeners))
	collectOutcomes(ctx, outcomes, lines)

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (a *Aggregator) resolveOne(ctx context.Context, l Listener) (line string) {
	defer func() {
		if p := recover(); p != nil {
			log.Errorw("resolve panicked", "identity", l.Identity, "panic", p)
			line = ""
		}
	}()

	if ctx.Err() != nil {
		return ""
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	res, err := a.resolver.Resolve(ctx, Query{Identity: l.Identity, Label: l.Label})
	if err != nil {
		log.Warnw("resolve failed", "identity", l.Identity, "err", err)
		return ""
	}
	return res.Formatted
}

// collectOutcomes fills lines until every listener reported or ctx is done.
// Outcomes already buffered when ctx ends are still kept.
func collectOutcomes(ctx context.Context, outcomes <-chan outcome, lines []string) {
	for pending := len(lines); pending > 0; pending-- {
		select {
		case o := <-outcomes:
			lines[o.index] = o.line
			continue
		case <-ctx.Done():
		}

		for ; pending > 0; pending-- {
			select {
			case o := <-outcomes:
				lines[o.index] = o.line
			default:
				log.Warnw("aggregate interrupted", "listeners", len(lines), "pending", pending, "err", ctx.Err())
				return
			}
		}
		return
	}
}
