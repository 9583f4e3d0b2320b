// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline is the orchestration entry point: it validates search
// requests, runs them as background tasks, and shapes the aggregated
// outcome. Transport layers (HTTP, CLI) stay thin shells over this
// package. See docs/ARCHITECTURE.md § Pipeline Interface.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/biosearch/internal/fetch"
	"github.com/pdiddy/biosearch/internal/registry"
	"github.com/pdiddy/biosearch/internal/task"
	"github.com/pdiddy/biosearch/pkg/types"
)

// Pipeline ties the task manager and the fetch orchestrator together.
type Pipeline struct {
	Tasks   *task.Manager
	Fetcher *fetch.Orchestrator

	defaultBudget int
}

// New builds a pipeline from the configuration. The caller keeps the task
// manager to wire its OnTerminal hook.
func New(cfg types.PipelineConfig, tasks *task.Manager) *Pipeline {
	return &Pipeline{
		Tasks:         tasks,
		Fetcher:       fetch.New(cfg.Fetch),
		defaultBudget: cfg.Fetch.MaxResults,
	}
}

// StartSearch validates the request, registers a task, and runs the
// aggregation in the background. It returns the task id to poll.
// An empty sources list means every registered source; maxResults zero
// means the configured default budget.
func (p *Pipeline) StartSearch(term string, sourceIDs []string, maxResults int) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", fmt.Errorf("empty search term")
	}
	if maxResults < 0 {
		return "", fmt.Errorf("max results must be positive, got %d", maxResults)
	}
	if maxResults == 0 {
		maxResults = p.defaultBudget
	}
	if len(sourceIDs) == 0 {
		for _, s := range registry.All() {
			sourceIDs = append(sourceIDs, s.ID)
		}
	}
	if err := registry.Validate(sourceIDs); err != nil {
		return "", err
	}

	t := p.Tasks.Create(term)
	go p.run(t.ID, term, sourceIDs, maxResults)
	return t.ID, nil
}

// Search runs the aggregation synchronously, for callers that do not need
// task tracking (the one-shot CLI path).
func (p *Pipeline) Search(ctx context.Context, term string, sourceIDs []string, maxResults int, sink fetch.Sink) (map[string]types.SourceResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("empty search term")
	}
	if maxResults <= 0 {
		maxResults = p.defaultBudget
	}
	if len(sourceIDs) == 0 {
		for _, s := range registry.All() {
			sourceIDs = append(sourceIDs, s.ID)
		}
	}
	if err := registry.Validate(sourceIDs); err != nil {
		return nil, err
	}
	return p.Fetcher.FetchAll(ctx, term, sourceIDs, maxResults, sink)
}

// run executes one background search task to a terminal state. A panic in
// the run fails the task instead of killing the process.
func (p *Pipeline) run(taskID, term string, sourceIDs []string, maxResults int) {
	defer func() {
		if r := recover(); r != nil {
			p.Tasks.Fail(taskID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	sink := func(progress float64, message string) {
		p.Tasks.Update(taskID, progress, message)
	}
	results, err := p.Fetcher.FetchAll(context.Background(), term, sourceIDs, maxResults, sink)
	if err != nil {
		p.Tasks.Fail(taskID, err.Error())
		return
	}
	if total := totalRecords(results); total == 0 && allFailed(results) {
		p.Tasks.Fail(taskID, fmt.Sprintf("all %d sources unavailable", len(results)))
		return
	}
	p.Tasks.Complete(taskID, Summarize(term, results))
}

// Summarize shapes the per-source results into the plain result map stored
// on completed tasks: the query, overall counts, and one entry per source.
func Summarize(term string, results map[string]types.SourceResult) map[string]any {
	sources := make(map[string]any, len(results))
	total := 0
	failed := 0
	for id, sr := range results {
		sources[id] = sr.Map()
		total += len(sr.Records)
		if sr.Err != "" {
			failed++
		}
	}
	return map[string]any{
		"query":          term,
		"total_records":  total,
		"sources_failed": failed,
		"sources":        sources,
	}
}

func totalRecords(results map[string]types.SourceResult) int {
	n := 0
	for _, sr := range results {
		n += len(sr.Records)
	}
	return n
}

func allFailed(results map[string]types.SourceResult) bool {
	for _, sr := range results {
		if sr.Err == "" {
			return false
		}
	}
	return len(results) > 0
}
