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

// europePMCBase is the Europe PMC REST search endpoint. Declared as a var
// so tests can substitute an httptest server.
var europePMCBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

const europePMCPageSize = 100

// EuropePMCAdapter fetches articles from the Europe PMC REST API, which
// paginates with an opaque cursorMark.
type EuropePMCAdapter struct {
	Client *http.Client
}

// ID returns the registry source id.
func (a *EuropePMCAdapter) ID() string { return "europe_pmc" }

// Fetch walks cursor pages until limit articles are accumulated or the
// cursor stops advancing. Articles are deduplicated by their Europe PMC id.
func (a *EuropePMCAdapter) Fetch(ctx context.Context, term string, limit int, cfg types.FetchConfig) ([]Raw, error) {
	var out []Raw
	seen := make(map[string]bool)
	cursor := "*"

	for len(out) < limit {
		pageSize := limit - len(out)
		if pageSize > europePMCPageSize {
			pageSize = europePMCPageSize
		}

		params := url.Values{
			"query":      {term},
			"format":     {"json"},
			"pageSize":   {fmt.Sprintf("%d", pageSize)},
			"resultType": {"core"},
			"cursorMark": {cursor},
		}

		resp, err := get(ctx, a.Client, europePMCBase+"?"+params.Encode(), cfg, nil)
		if err != nil {
			if len(out) == 0 {
				return nil, fmt.Errorf("Europe PMC API request: %w", err)
			}
			return out, nil
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if len(out) == 0 {
				return nil, fmt.Errorf("Europe PMC API returned HTTP %d", resp.StatusCode)
			}
			return out, nil
		}

		var page europePMCResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			if len(out) == 0 {
				return nil, fmt.Errorf("parsing Europe PMC response: %w", err)
			}
			return out, nil
		}

		if len(page.ResultList.Result) == 0 {
			break
		}

		for _, res := range page.ResultList.Result {
			key := res.ID
			if key == "" {
				key = res.DOI
			}
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, resultToRaw(res))
			if len(out) >= limit {
				break
			}
		}

		if page.NextCursorMark == "" || page.NextCursorMark == cursor {
			break
		}
		cursor = page.NextCursorMark

		if err := pace(ctx, cfg.PageDelay); err != nil {
			return out, nil
		}
	}
	return out, nil
}

func resultToRaw(res europePMCResult) EuropePMCRaw {
	var authors []string
	for _, au := range res.AuthorList.Author {
		name := strings.TrimSpace(au.FirstName + " " + au.LastName)
		if name == "" {
			name = au.FullName
		}
		if name != "" {
			authors = append(authors, name)
		}
	}

	pageURL := ""
	if res.PMID != "" {
		pageURL = "https://europepmc.org/article/MED/" + res.PMID
	}
	fullTextURL := ""
	if res.PMCID != "" {
		fullTextURL = "https://europepmc.org/articles/" + res.PMCID
	}

	return EuropePMCRaw{
		PMID:          res.PMID,
		PMCID:         res.PMCID,
		DOI:           res.DOI,
		Title:         res.Title,
		Abstract:      res.AbstractText,
		Authors:       authors,
		Journal:       res.JournalTitle,
		PubDate:       res.FirstPublicationDate,
		Year:          res.PubYear,
		CitationCount: res.CitedByCount,
		IsOpenAccess:  res.IsOpenAccess == "Y",
		HasFullText:   res.HasTextMinedTerms == "Y",
		URL:           pageURL,
		FullTextURL:   fullTextURL,
	}
}

// Europe PMC REST API JSON structures.
type europePMCResponse struct {
	NextCursorMark string              `json:"nextCursorMark"`
	ResultList     europePMCResultList `json:"resultList"`
}

type europePMCResultList struct {
	Result []europePMCResult `json:"result"`
}

type europePMCResult struct {
	ID                   string              `json:"id"`
	PMID                 string              `json:"pmid"`
	PMCID                string              `json:"pmcid"`
	DOI                  string              `json:"doi"`
	Title                string              `json:"title"`
	AbstractText         string              `json:"abstractText"`
	AuthorList           europePMCAuthorList `json:"authorList"`
	JournalTitle         string              `json:"journalTitle"`
	FirstPublicationDate string              `json:"firstPublicationDate"`
	PubYear              string              `json:"pubYear"`
	CitedByCount         int                 `json:"citedByCount"`
	IsOpenAccess         string              `json:"isOpenAccess"`
	HasTextMinedTerms    string              `json:"hasTextMinedTerms"`
}

type europePMCAuthorList struct {
	Author []europePMCAuthor `json:"author"`
}

type europePMCAuthor struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
}
