// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/biosearch/pkg/types"
)

func TestQueryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.yaml")

	results := []types.SourceResult{
		{
			SourceID: "pubmed",
			RawCount: 2,
			Records: []types.Record{
				{SourceID: "pubmed", ExternalID: "111", Title: "one", QualityScore: 80},
				{SourceID: "pubmed", ExternalID: "222", Title: "two", QualityScore: 60},
			},
		},
		{SourceID: "openalex", Err: "HTTP 503"},
	}
	params := QueryParams{Term: "asthma", Sources: []string{"pubmed", "openalex"}, MaxResults: 50}
	require.NoError(t, WriteQueryFile(path, params, results))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, params, qf.Query)
	assert.Equal(t, 2, qf.Summary.TotalRecords)
	assert.Equal(t, 1, qf.Summary.SourcesFailed)
	assert.False(t, qf.Summary.Timestamp.IsZero())

	require.Len(t, qf.Results, 2)
	assert.Equal(t, "one", qf.Results[0].Records[0].Title)
	assert.Equal(t, "HTTP 503", qf.Results[1].Err)
}

func TestReadQueryFileErrors(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":\n  not yaml: ["), 0o644))
	_, err = ReadQueryFile(bad)
	assert.Error(t, err)
}
