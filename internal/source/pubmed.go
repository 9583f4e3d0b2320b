// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/biosearch/internal/httputil"
	"github.com/pdiddy/biosearch/pkg/types"
)

// pubmedBase is the NCBI eutils endpoint root. Declared as a var so tests
// can substitute an httptest server.
var pubmedBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// pubmedBatchSize is the number of ids resolved per esummary call.
const pubmedBatchSize = 50

// PubMedAdapter fetches articles from PubMed in two steps: esearch returns
// the matching PMIDs, then esummary resolves them to article summaries in
// batches.
type PubMedAdapter struct {
	Client *http.Client
}

// ID returns the registry source id.
func (a *PubMedAdapter) ID() string { return "pubmed" }

// Fetch resolves up to limit article summaries for term. A failing
// esummary batch is skipped; a failing esearch means the source is
// unavailable.
func (a *PubMedAdapter) Fetch(ctx context.Context, term string, limit int, cfg types.FetchConfig) ([]Raw, error) {
	ids, err := a.search(ctx, term, limit, cfg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var out []Raw
	seen := make(map[string]bool)
	for i := 0; i < len(ids); i += pubmedBatchSize {
		if i > 0 {
			if err := pace(ctx, cfg.PageDelay); err != nil {
				return out, nil
			}
		}

		end := i + pubmedBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := a.summaries(ctx, ids[i:end], cfg)
		if err != nil {
			// One bad batch does not abort the fetch.
			continue
		}
		for _, raw := range batch {
			if raw.PMID == "" || seen[raw.PMID] {
				continue
			}
			seen[raw.PMID] = true
			out = append(out, raw)
		}
	}
	return out, nil
}

// search runs esearch and returns the matching PMIDs, most relevant first.
func (a *PubMedAdapter) search(ctx context.Context, term string, limit int, cfg types.FetchConfig) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {fmt.Sprintf("%d", limit)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	var sr pubmedSearchResponse
	if err := a.getJSON(ctx, pubmedBase+"/esearch.fcgi?"+params.Encode(), cfg, &sr); err != nil {
		return nil, err
	}
	return sr.ESearchResult.IDList, nil
}

// summaries runs esummary for one id batch.
func (a *PubMedAdapter) summaries(ctx context.Context, ids []string, cfg types.FetchConfig) ([]PubMedRaw, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	var sr pubmedSummaryResponse
	if err := a.getJSON(ctx, pubmedBase+"/esummary.fcgi?"+params.Encode(), cfg, &sr); err != nil {
		return nil, err
	}

	// The result object is keyed by PMID, with a "uids" entry listing the
	// order. Walk the requested ids to keep the esearch relevance order.
	var out []PubMedRaw
	for _, id := range ids {
		rawDoc, ok := sr.Result[id]
		if !ok {
			continue
		}
		var doc pubmedDoc
		if err := json.Unmarshal(rawDoc, &doc); err != nil {
			continue
		}

		var authors []string
		for _, au := range doc.Authors {
			if au.Name != "" {
				authors = append(authors, au.Name)
			}
		}

		doi := ""
		for _, aid := range doc.ArticleIDs {
			if aid.IDType == "doi" {
				doi = aid.Value
				break
			}
		}

		journal := doc.FullJournalName
		if journal == "" {
			journal = doc.Source
		}

		out = append(out, PubMedRaw{
			PMID:    id,
			Title:   doc.Title,
			Authors: authors,
			Journal: journal,
			PubDate: doc.PubDate,
			Volume:  doc.Volume,
			Issue:   doc.Issue,
			Pages:   doc.Pages,
			DOI:     doi,
			URL:     "https://pubmed.ncbi.nlm.nih.gov/" + id + "/",
		})
	}
	return out, nil
}

func (a *PubMedAdapter) getJSON(ctx context.Context, reqURL string, cfg types.FetchConfig, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return fmt.Errorf("PubMed API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PubMed API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing PubMed response: %w", err)
	}
	return nil
}

// PubMed eutils JSON structures.
type pubmedSearchResponse struct {
	ESearchResult pubmedESearchResult `json:"esearchresult"`
}

type pubmedESearchResult struct {
	IDList []string `json:"idlist"`
}

type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDoc struct {
	Title           string            `json:"title"`
	Authors         []pubmedAuthor    `json:"authors"`
	FullJournalName string            `json:"fulljournalname"`
	Source          string            `json:"source"`
	PubDate         string            `json:"pubdate"`
	Volume          string            `json:"volume"`
	Issue           string            `json:"issue"`
	Pages           string            `json:"pages"`
	ArticleIDs      []pubmedArticleID `json:"articleids"`
}

type pubmedAuthor struct {
	Name string `json:"name"`
}

type pubmedArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}
