// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/biosearch/internal/httputil"
	"github.com/pdiddy/biosearch/pkg/types"
)

// semanticBase is the Semantic Scholar paper search endpoint. Declared as a
// var so tests can substitute an httptest server.
var semanticBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "paperId,title,abstract,authors,year,citationCount," +
	"venue,publicationDate,openAccessPdf,externalIds,journal"

const semanticPageSize = 100

// SemanticScholarAdapter fetches papers from the Semantic Scholar Graph
// API, which paginates by offset with at most 100 results per page.
type SemanticScholarAdapter struct {
	Client *http.Client
}

// ID returns the registry source id.
func (a *SemanticScholarAdapter) ID() string { return "semantic_scholar" }

// Fetch walks offset pages until limit papers are accumulated or the API
// stops returning a next offset. Papers are deduplicated by paper id.
func (a *SemanticScholarAdapter) Fetch(ctx context.Context, term string, limit int, cfg types.FetchConfig) ([]Raw, error) {
	var out []Raw
	seen := make(map[string]bool)
	offset := 0

	for len(out) < limit {
		pageSize := limit - len(out)
		if pageSize > semanticPageSize {
			pageSize = semanticPageSize
		}

		params := url.Values{
			"query":  {term},
			"limit":  {fmt.Sprintf("%d", pageSize)},
			"offset": {fmt.Sprintf("%d", offset)},
			"fields": {semanticFields},
		}

		page, err := a.fetchPage(ctx, semanticBase+"?"+params.Encode(), cfg)
		if err != nil {
			if len(out) == 0 {
				return nil, err
			}
			return out, nil
		}

		for _, paper := range page.Data {
			if paper.PaperID == "" || seen[paper.PaperID] {
				continue
			}
			seen[paper.PaperID] = true
			out = append(out, paperToRaw(paper))
			if len(out) >= limit {
				break
			}
		}

		if page.Next == 0 || len(page.Data) == 0 {
			break
		}
		offset = page.Next

		if err := pace(ctx, cfg.PageDelay); err != nil {
			return out, nil
		}
	}
	return out, nil
}

func (a *SemanticScholarAdapter) fetchPage(ctx context.Context, reqURL string, cfg types.FetchConfig) (*semanticResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if cfg.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", cfg.SemanticScholarAPIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var page semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return &page, nil
}

func paperToRaw(p semanticPaper) SemanticRaw {
	var authors []string
	for _, au := range p.Authors {
		if au.Name != "" {
			authors = append(authors, au.Name)
		}
	}

	journal := ""
	if p.Journal != nil {
		journal = p.Journal.Name
	}
	if journal == "" {
		journal = p.Venue
	}

	pdfURL := ""
	if p.OpenAccessPDF != nil {
		pdfURL = p.OpenAccessPDF.URL
	}

	return SemanticRaw{
		PaperID:         p.PaperID,
		Title:           p.Title,
		Abstract:        p.Abstract,
		Authors:         authors,
		Year:            p.Year,
		PublicationDate: p.PublicationDate,
		Venue:           p.Venue,
		Journal:         journal,
		CitationCount:   p.CitationCount,
		DOI:             p.ExternalIDs.DOI,
		PMID:            p.ExternalIDs.PubMed,
		OpenAccessPDF:   pdfURL,
		URL:             "https://www.semanticscholar.org/paper/" + p.PaperID,
	}
}

// Semantic Scholar Graph API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Next  int             `json:"next"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Authors         []semanticAuthor    `json:"authors"`
	Year            int                 `json:"year"`
	CitationCount   int                 `json:"citationCount"`
	Venue           string              `json:"venue"`
	PublicationDate string              `json:"publicationDate"`
	OpenAccessPDF   *semanticOpenAccess `json:"openAccessPdf"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
	Journal         *semanticJournal    `json:"journal"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticOpenAccess struct {
	URL string `json:"url"`
}

type semanticExternalIDs struct {
	DOI    string `json:"DOI"`
	PubMed string `json:"PubMed"`
}

type semanticJournal struct {
	Name string `json:"name"`
}
