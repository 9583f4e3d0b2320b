// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubMedFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "esearch"):
			assert.Equal(t, "asthma", r.URL.Query().Get("term"))
			assert.Equal(t, "relevance", r.URL.Query().Get("sort"))
			fmt.Fprint(w, `{"esearchresult": {"idlist": ["111", "222"]}}`)
		case strings.Contains(r.URL.Path, "esummary"):
			assert.Equal(t, "111,222", r.URL.Query().Get("id"))
			fmt.Fprint(w, `{"result": {
				"uids": ["222", "111"],
				"111": {"title": "First", "authors": [{"name": "Smith J"}],
					"fulljournalname": "Nature Medicine", "pubdate": "2022 Mar 15",
					"articleids": [{"idtype": "pubmed", "value": "111"},
						{"idtype": "doi", "value": "10.1000/one"}]},
				"222": {"title": "Second", "source": "Lancet", "pubdate": "2021"}
			}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	swapBase(t, &pubmedBase, srv.URL)

	a := &PubMedAdapter{Client: srv.Client()}
	raws, err := a.Fetch(context.Background(), "asthma", 10, testCfg)
	require.NoError(t, err)
	require.Len(t, raws, 2)

	// Results keep the esearch relevance order, not the esummary map order.
	first := raws[0].(PubMedRaw)
	assert.Equal(t, "111", first.PMID)
	assert.Equal(t, "First", first.Title)
	assert.Equal(t, []string{"Smith J"}, first.Authors)
	assert.Equal(t, "Nature Medicine", first.Journal)
	assert.Equal(t, "10.1000/one", first.DOI)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/111/", first.URL)

	second := raws[1].(PubMedRaw)
	assert.Equal(t, "Lancet", second.Journal, "source is the journal fallback")
	assert.Empty(t, second.DOI)
}

func TestPubMedSendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		fmt.Fprint(w, `{"esearchresult": {"idlist": []}}`)
	}))
	defer srv.Close()
	swapBase(t, &pubmedBase, srv.URL)

	cfg := testCfg
	cfg.NCBIAPIKey = "secret"
	a := &PubMedAdapter{Client: srv.Client()}
	raws, err := a.Fetch(context.Background(), "asthma", 10, cfg)
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestPubMedSearchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadRequest)
	}))
	defer srv.Close()
	swapBase(t, &pubmedBase, srv.URL)

	a := &PubMedAdapter{Client: srv.Client()}
	_, err := a.Fetch(context.Background(), "asthma", 10, testCfg)
	assert.Error(t, err)
}

func TestPubMedBadBatchSkipped(t *testing.T) {
	// 60 ids means two esummary batches; the second one failing must not
	// abort the fetch.
	ids := make([]string, 60)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", 1000+i)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "esearch"):
			fmt.Fprintf(w, `{"esearchresult": {"idlist": [%s]}}`, `"`+strings.Join(ids, `","`)+`"`)
		case strings.Contains(r.URL.Path, "esummary"):
			batch := strings.Split(r.URL.Query().Get("id"), ",")
			if len(batch) == pubmedBatchSize {
				docs := make([]string, 0, len(batch))
				for _, id := range batch {
					docs = append(docs, fmt.Sprintf(`"%s": {"title": "t%s"}`, id, id))
				}
				fmt.Fprintf(w, `{"result": {%s}}`, strings.Join(docs, ","))
				return
			}
			http.Error(w, "down", http.StatusBadRequest)
		}
	}))
	defer srv.Close()
	swapBase(t, &pubmedBase, srv.URL)

	a := &PubMedAdapter{Client: srv.Client()}
	raws, err := a.Fetch(context.Background(), "asthma", 60, testCfg)
	require.NoError(t, err)
	assert.Len(t, raws, pubmedBatchSize, "only the good batch contributes")
}
