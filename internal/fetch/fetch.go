// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch runs the concurrent fan-out across the selected sources,
// normalizes what came back, and optionally enriches literature records
// with open-access links. See docs/ARCHITECTURE.md § Fetch Orchestration.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/biosearch/internal/normalize"
	"github.com/pdiddy/biosearch/internal/registry"
	"github.com/pdiddy/biosearch/internal/source"
	"github.com/pdiddy/biosearch/pkg/types"
)

// Sink receives progress milestones while a fetch runs. Implementations
// must be cheap; the orchestrator calls them inline.
type Sink func(progress float64, message string)

// Orchestrator fans a search term out to the selected source adapters,
// one goroutine per source. A failing source never blocks or aborts the
// others: its error lands in that source's result slot.
type Orchestrator struct {
	Client *http.Client
	Config types.FetchConfig

	// NewAdapter constructs the adapter for a source id. Tests swap this
	// out; nil means the production adapter set.
	NewAdapter func(id string, client *http.Client) (source.Adapter, bool)
}

// New builds an orchestrator with a client honoring the configured
// per-request timeout.
func New(cfg types.FetchConfig) *Orchestrator {
	return &Orchestrator{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
	}
}

// sourceOutcome carries one source's raw fetch result off its goroutine.
type sourceOutcome struct {
	id        string
	raws      []source.Raw
	err       error
	fetchedAt time.Time
}

// FetchAll fetches term from every source in sourceIDs concurrently and
// returns one SourceResult per source id, normalized and scored. The
// total result budget is split evenly across the sources; the integer
// remainder is dropped. Source ids must be pre-validated against the
// registry. FetchAll returns an error only when ctx is cancelled.
func (o *Orchestrator) FetchAll(ctx context.Context, term string, sourceIDs []string, totalBudget int, sink Sink) (map[string]types.SourceResult, error) {
	if sink == nil {
		sink = func(float64, string) {}
	}
	if len(sourceIDs) == 0 {
		return map[string]types.SourceResult{}, nil
	}
	perSource := totalBudget / len(sourceIDs)

	sink(0.05, fmt.Sprintf("dispatching %d sources", len(sourceIDs)))

	outcomes := make(chan sourceOutcome, len(sourceIDs))
	for _, id := range sourceIDs {
		go func(id string) {
			defer func() {
				if r := recover(); r != nil {
					outcomes <- sourceOutcome{id: id, err: fmt.Errorf("source %s panicked: %v", id, r)}
				}
			}()
			adapter, ok := o.adapter(id)
			if !ok {
				outcomes <- sourceOutcome{id: id, err: fmt.Errorf("no adapter for source %q", id)}
				return
			}
			raws, err := adapter.Fetch(ctx, term, perSource, o.Config)
			outcomes <- sourceOutcome{id: id, raws: raws, err: err, fetchedAt: time.Now().UTC()}
		}(id)
	}

	// Collect as sources settle so progress moves while slow sources run.
	collected := make([]sourceOutcome, 0, len(sourceIDs))
	for range sourceIDs {
		oc := <-outcomes
		collected = append(collected, oc)
		frac := float64(len(collected)) / float64(len(sourceIDs))
		sink(0.05+0.55*frac, fmt.Sprintf("%s done (%d/%d sources)", oc.id, len(collected), len(sourceIDs)))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sink(0.65, "normalizing records")
	now := time.Now().UTC()
	results := make(map[string]types.SourceResult, len(collected))
	for _, oc := range collected {
		sr := types.SourceResult{SourceID: oc.id, RawCount: len(oc.raws)}
		if oc.err != nil {
			sr.Err = oc.err.Error()
		}
		for _, raw := range oc.raws {
			rec, err := normalize.Normalize(raw, oc.fetchedAt, now)
			if err != nil {
				continue // malformed record, drop and keep going
			}
			sr.Records = append(sr.Records, rec)
		}
		results[oc.id] = sr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if o.Config.EnrichOpenAccess && o.Config.UnpaywallEmail != "" {
		sink(0.8, "resolving open-access links")
		o.enrichResults(ctx, results)
	}

	sink(0.95, "fetch complete")
	return results, nil
}

func (o *Orchestrator) adapter(id string) (source.Adapter, bool) {
	if o.NewAdapter != nil {
		return o.NewAdapter(id, o.Client)
	}
	return source.ForID(id, o.Client)
}

// enrichResults runs the Unpaywall pass over every literature-category
// result in place. Best effort: lookup failures leave records untouched.
func (o *Orchestrator) enrichResults(ctx context.Context, results map[string]types.SourceResult) {
	for id, sr := range results {
		if !registry.Literature(id) {
			continue
		}
		for i := range sr.Records {
			if ctx.Err() != nil {
				return
			}
			sr.Records[i] = o.enrichRecord(ctx, sr.Records[i])
		}
		results[id] = sr
	}
}
