package ics

import (
	"context"
	"fmt"
	"time"

	"todosync/internal/model"
)

// Loader runs the full feed pipeline: fetch, parse, expand. Any failure is
// a feed retrieval failure and aborts the caller's reconciliation pass.
type Loader struct {
	Fetcher *Fetcher
	Parser  Parser
	Expand  ExpandConfig
}

// NewLoader builds a Loader with an expansion window of [now−lookback,
// now+horizon] around the current time.
func NewLoader(fetcher *Fetcher, loc *time.Location, lookbackDays, horizonDays int) Loader {
	now := time.Now().In(loc)
	return Loader{
		Fetcher: fetcher,
		Parser:  Parser{Loc: loc},
		Expand: ExpandConfig{
			RangeStart: now.AddDate(0, 0, -lookbackDays),
			RangeEnd:   now.AddDate(0, 0, horizonDays),
		},
	}
}

// Load fetches and parses one feed into concrete events, in feed order.
func (l Loader) Load(ctx context.Context, src Source) ([]model.Event, error) {
	res, err := l.Fetcher.FetchOne(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src.ID, err)
	}

	parsed, err := l.Parser.Parse(src, res.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src.ID, err)
	}

	return Expand(parsed, l.Expand), nil
}
