// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAlexWorkJSON(id, title string) map[string]any {
	return map[string]any{
		"id":                      id,
		"title":                   title,
		"doi":                     "https://doi.org/10.5/" + title,
		"publication_date":        "2023-02-01",
		"publication_year":        2023,
		"cited_by_count":          7,
		"authorships":             []any{map[string]any{"author": map[string]any{"display_name": "Lee K"}}},
		"abstract_inverted_index": map[string]any{"short": []int{0}, "abstract": []int{1}},
		"open_access":             map[string]any{"is_oa": true, "oa_status": "gold", "oa_url": "https://oa/" + title},
		"primary_location": map[string]any{
			"source":  map[string]any{"display_name": "PLOS ONE"},
			"pdf_url": "",
		},
	}
}

func TestOpenAlexPagination(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pages = append(pages, q.Get("page"))
		assert.Equal(t, "asthma", q.Get("search"))
		assert.Equal(t, "polite@example.org", q.Get("mailto"))

		if q.Get("page") == "1" {
			json.NewEncoder(w).Encode(map[string]any{"results": []any{
				openAlexWorkJSON("https://openalex.org/W1", "one"),
				openAlexWorkJSON("https://openalex.org/W2", "two"),
			}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer srv.Close()
	swapBase(t, &openAlexBase, srv.URL)

	cfg := testCfg
	cfg.UnpaywallEmail = "polite@example.org"
	a := &OpenAlexAdapter{Client: srv.Client()}
	raws, err := a.Fetch(context.Background(), "asthma", 10, cfg)
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, []string{"1", "2"}, pages, "empty page ends the walk")

	work := raws[0].(OpenAlexRaw)
	assert.Equal(t, "https://openalex.org/W1", work.ID)
	assert.Equal(t, "10.5/one", work.DOI, "doi.org prefix stripped")
	assert.Equal(t, "PLOS ONE", work.Journal)
	assert.Equal(t, "https://oa/one", work.PDFURL, "oa_url backfills a missing pdf_url")
	assert.True(t, work.IsOpenAccess)
	assert.Equal(t, map[string][]int{"short": {0}, "abstract": {1}}, work.AbstractInvertedIndex)
}

func TestOpenAlexUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	swapBase(t, &openAlexBase, srv.URL)

	a := &OpenAlexAdapter{Client: srv.Client()}
	_, err := a.Fetch(context.Background(), "asthma", 10, testCfg)
	assert.Error(t, err)
}
