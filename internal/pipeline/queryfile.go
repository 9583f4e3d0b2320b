// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/biosearch/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results. A
// completed search can be saved to a file and reloaded later without
// re-querying the upstream APIs.
type QueryFile struct {
	Query   QueryParams          `yaml:"query"`
	Results []types.SourceResult `yaml:"results"`
	Summary QuerySummary         `yaml:"summary"`
}

// QueryParams stores the search parameters in a serializable form.
type QueryParams struct {
	Term       string   `yaml:"term"`
	Sources    []string `yaml:"sources,omitempty"`
	MaxResults int      `yaml:"max_results"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	TotalRecords  int       `yaml:"total_records"`
	SourcesFailed int       `yaml:"sources_failed"`
	Timestamp     time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves search parameters and results to a YAML file.
func WriteQueryFile(path string, params QueryParams, results []types.SourceResult) error {
	qf := QueryFile{
		Query:   params,
		Results: results,
		Summary: QuerySummary{
			Timestamp: time.Now(),
		},
	}
	for _, sr := range results {
		qf.Summary.TotalRecords += len(sr.Records)
		if sr.Err != "" {
			qf.Summary.SourcesFailed++
		}
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
