// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/biosearch/pkg/types"
)

// preprintBase is the bioRxiv/medRxiv details endpoint root. Declared as a
// var so tests can substitute an httptest server.
var preprintBase = "https://api.biorxiv.org/details"

// preprintPageSize is the fixed page size the details API returns. A page
// shorter than this signals the last page.
const preprintPageSize = 100

// PreprintAdapter fetches preprints from bioRxiv or medRxiv. Their shared
// API has no search endpoint: it is queried by date interval with a numeric
// cursor, and the adapter filters the stream by keyword match on title and
// abstract.
type PreprintAdapter struct {
	Client *http.Client
	// Server selects the mirror: "biorxiv" or "medrxiv".
	Server string
}

// ID returns the registry source id.
func (a *PreprintAdapter) ID() string { return a.Server }

// Fetch scans the configured date window, newest interval first, keeping
// preprints whose title or abstract contains any word of term. Preprints
// are deduplicated by DOI.
func (a *PreprintAdapter) Fetch(ctx context.Context, term string, limit int, cfg types.FetchConfig) ([]Raw, error) {
	window := cfg.PreprintWindow
	if window <= 0 {
		window = 2 * 365 * 24 * time.Hour
	}
	end := time.Now().UTC()
	start := end.Add(-window)

	words := strings.Fields(strings.ToLower(term))

	var out []Raw
	seen := make(map[string]bool)
	cursor := 0

	for len(out) < limit {
		reqURL := fmt.Sprintf("%s/%s/%s/%s/%d",
			preprintBase, a.Server,
			start.Format("2006-01-02"), end.Format("2006-01-02"), cursor)

		resp, err := get(ctx, a.Client, reqURL, cfg, nil)
		if err != nil {
			if len(out) == 0 {
				return nil, fmt.Errorf("%s API request: %w", a.Server, err)
			}
			return out, nil
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if len(out) == 0 {
				return nil, fmt.Errorf("%s API returned HTTP %d", a.Server, resp.StatusCode)
			}
			return out, nil
		}

		var page preprintResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			if len(out) == 0 {
				return nil, fmt.Errorf("parsing %s response: %w", a.Server, err)
			}
			return out, nil
		}

		if len(page.Collection) == 0 {
			break
		}

		for _, item := range page.Collection {
			if !matchesAny(item.Title, item.Abstract, words) {
				continue
			}
			if item.DOI == "" || seen[item.DOI] {
				continue
			}
			seen[item.DOI] = true
			out = append(out, a.itemToRaw(item))
			if len(out) >= limit {
				break
			}
		}

		cursor += len(page.Collection)
		if len(page.Collection) < preprintPageSize {
			break
		}

		if err := pace(ctx, cfg.PageDelay); err != nil {
			return out, nil
		}
	}
	return out, nil
}

func (a *PreprintAdapter) itemToRaw(item preprintItem) PreprintRaw {
	pdfURL := ""
	pageURL := ""
	if item.DOI != "" {
		pageURL = fmt.Sprintf("https://www.%s.org/content/%s", a.Server, item.DOI)
		pdfURL = pageURL + ".full.pdf"
	}
	return PreprintRaw{
		Server:   a.Server,
		DOI:      item.DOI,
		Title:    item.Title,
		Abstract: item.Abstract,
		Authors:  item.Authors,
		Date:     item.Date,
		Version:  item.Version,
		Category: item.Category,
		PDFURL:   pdfURL,
		URL:      pageURL,
	}
}

// matchesAny reports whether any of the lowercased words occurs in the
// title or abstract.
func matchesAny(title, abstract string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	title = strings.ToLower(title)
	abstract = strings.ToLower(abstract)
	for _, w := range words {
		if strings.Contains(title, w) || strings.Contains(abstract, w) {
			return true
		}
	}
	return false
}

// bioRxiv/medRxiv details API JSON structures.
type preprintResponse struct {
	Collection []preprintItem `json:"collection"`
}

type preprintItem struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Authors  string `json:"authors"`
	Date     string `json:"date"`
	Version  string `json:"version"`
	Category string `json:"category"`
}
