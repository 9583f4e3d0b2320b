// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biosearch/internal/pipeline"
	"github.com/pdiddy/biosearch/internal/task"
	"github.com/pdiddy/biosearch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Run a one-shot aggregation across the selected sources",
	Long: `Search queries the selected biomedical sources in parallel, normalizes
the results, and prints them ranked by quality score. By default every
registered source is queried; use --sources to narrow the fan-out.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSlice("sources", nil, "source ids to query (default: all)")
	searchCmd.Flags().Int("max-results", 0, "total result budget split across sources")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "save the search and its results to a YAML file")
	searchCmd.Flags().String("load", "", "print results from a saved search file instead of querying")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	sources, _ := cmd.Flags().GetStringSlice("sources")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	asJSON, _ := cmd.Flags().GetBool("json")
	savePath, _ := cmd.Flags().GetString("save")
	loadPath, _ := cmd.Flags().GetString("load")

	if loadPath != "" {
		qf, err := pipeline.ReadQueryFile(loadPath)
		if err != nil {
			return err
		}
		results := make(map[string]types.SourceResult, len(qf.Results))
		for _, sr := range qf.Results {
			results[sr.SourceID] = sr
		}
		return printResults(qf.Query.Term, results, asJSON)
	}
	if len(args) != 1 {
		return fmt.Errorf("search term required (or use --load)")
	}

	cfg := pipelineConfig()
	p := pipeline.New(cfg, task.NewManager(cfg.Tasks))

	sink := func(progress float64, message string) {
		fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", progress*100, message)
	}
	results, err := p.Search(context.Background(), args[0], sources, maxResults, sink)
	if err != nil {
		return err
	}

	if savePath != "" {
		params := pipeline.QueryParams{Term: args[0], Sources: sources, MaxResults: maxResults}
		if err := pipeline.WriteQueryFile(savePath, params, sortedResults(results)); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved search to %s\n", savePath)
	}
	return printResults(args[0], results, asJSON)
}

func printResults(term string, results map[string]types.SourceResult, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(pipeline.Summarize(term, results))
	}
	formatResults(results, os.Stdout)
	return nil
}

// sortedResults flattens the result map in source-id order for stable
// on-disk output.
func sortedResults(results map[string]types.SourceResult) []types.SourceResult {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]types.SourceResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, results[id])
	}
	return out
}

// formatResults writes per-source counts and the top records as a
// human-readable table.
func formatResults(results map[string]types.SourceResult, w io.Writer) {
	ids := make([]string, 0, len(results))
	var records []types.Record
	for id, sr := range results {
		ids = append(ids, id)
		records = append(records, sr.Records...)
	}
	sort.Strings(ids)

	for _, id := range ids {
		sr := results[id]
		if sr.Err != "" {
			fmt.Fprintf(w, "%-18s unavailable: %s\n", id, sr.Err)
			continue
		}
		fmt.Fprintf(w, "%-18s %d records (%d raw)\n", id, len(sr.Records), sr.RawCount)
	}
	fmt.Fprintln(w)

	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].QualityScore > records[j].QualityScore
	})

	fmt.Fprintf(w, "%-4s  %-60s  %-16s  %-10s  %-5s\n", "Rank", "Title", "Source", "Date", "Score")
	fmt.Fprintln(w, strings.Repeat("-", 104))
	for i, r := range records {
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-16s  %-10s  %5.1f\n",
			i+1, title, r.SourceID, r.PrimaryDate, r.QualityScore)
	}
	fmt.Fprintf(w, "\n%d records\n", len(records))
}
