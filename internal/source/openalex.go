// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/biosearch/pkg/types"
)

// openAlexBase is the OpenAlex Works search endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexBase = "https://api.openalex.org/works"

const openAlexPageSize = 200

// OpenAlexAdapter fetches works from the OpenAlex API, which paginates with
// a page number and allows up to 200 results per page.
type OpenAlexAdapter struct {
	Client *http.Client
}

// ID returns the registry source id.
func (a *OpenAlexAdapter) ID() string { return "openalex" }

// Fetch walks result pages until limit works are accumulated or a page
// comes back empty. Works are deduplicated by OpenAlex id.
func (a *OpenAlexAdapter) Fetch(ctx context.Context, term string, limit int, cfg types.FetchConfig) ([]Raw, error) {
	var out []Raw
	seen := make(map[string]bool)
	page := 1

	for len(out) < limit {
		perPage := limit - len(out)
		if perPage > openAlexPageSize {
			perPage = openAlexPageSize
		}

		params := url.Values{
			"search":   {term},
			"per_page": {fmt.Sprintf("%d", perPage)},
			"page":     {fmt.Sprintf("%d", page)},
		}
		if cfg.UnpaywallEmail != "" {
			// Polite pool access.
			params.Set("mailto", cfg.UnpaywallEmail)
		}

		resp, err := get(ctx, a.Client, openAlexBase+"?"+params.Encode(), cfg, nil)
		if err != nil {
			if len(out) == 0 {
				return nil, fmt.Errorf("OpenAlex API request: %w", err)
			}
			return out, nil
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if len(out) == 0 {
				return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
			}
			return out, nil
		}

		var oar openAlexResponse
		err = json.NewDecoder(resp.Body).Decode(&oar)
		resp.Body.Close()
		if err != nil {
			if len(out) == 0 {
				return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
			}
			return out, nil
		}

		if len(oar.Results) == 0 {
			break
		}

		for _, work := range oar.Results {
			if work.ID == "" || seen[work.ID] {
				continue
			}
			seen[work.ID] = true
			out = append(out, workToRaw(work))
			if len(out) >= limit {
				break
			}
		}

		page++
		if err := pace(ctx, cfg.PageDelay); err != nil {
			return out, nil
		}
	}
	return out, nil
}

func workToRaw(work openAlexWork) OpenAlexRaw {
	var authors []string
	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName != "" {
			authors = append(authors, authorship.Author.DisplayName)
		}
	}

	journal := ""
	pdfURL := ""
	if work.PrimaryLocation != nil {
		journal = work.PrimaryLocation.Source.DisplayName
		pdfURL = work.PrimaryLocation.PDFURL
	}
	if pdfURL == "" {
		pdfURL = work.OpenAccess.OAURL
	}

	return OpenAlexRaw{
		ID:                    work.ID,
		DOI:                   strings.TrimPrefix(work.DOI, "https://doi.org/"),
		Title:                 work.Title,
		AbstractInvertedIndex: work.AbstractInvertedIndex,
		Authors:               authors,
		PublicationDate:       work.PublicationDate,
		Year:                  work.PublicationYear,
		Journal:               journal,
		CitationCount:         work.CitedByCount,
		IsOpenAccess:          work.OpenAccess.IsOA,
		OAStatus:              work.OpenAccess.OAStatus,
		PDFURL:                pdfURL,
		URL:                   work.ID,
	}
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

type openAlexLocation struct {
	Source openAlexSource `json:"source"`
	PDFURL string         `json:"pdf_url"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}
