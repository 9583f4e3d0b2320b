// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/biosearch/internal/normalize"
	"github.com/pdiddy/biosearch/pkg/types"
)

// unpaywallBase is a package var so tests can point lookups at a local
// httptest server.
var unpaywallBase = "https://api.unpaywall.org/v2"

// unpaywallDelay paces DOI lookups against the public endpoint.
var unpaywallDelay = 100 * time.Millisecond

type unpaywallWork struct {
	IsOA          bool `json:"is_oa"`
	BestOALocation *struct {
		URLForPDF string `json:"url_for_pdf"`
		URL       string `json:"url"`
	} `json:"best_oa_location"`
}

// enrichRecord looks the record's DOI up on Unpaywall and fills in the
// open-access flag and PDF link when found, then re-scores. Records
// without a DOI, or that already carry a PDF link, pass through untouched.
func (o *Orchestrator) enrichRecord(ctx context.Context, rec types.Record) types.Record {
	if rec.DOI == "" || rec.PDFURL != "" {
		return rec
	}
	work, err := o.lookupUnpaywall(ctx, rec.DOI)
	if err != nil {
		return rec
	}
	if work.IsOA {
		rec.OpenAccess = true
	}
	if loc := work.BestOALocation; loc != nil {
		if loc.URLForPDF != "" {
			rec.PDFURL = loc.URLForPDF
		} else if loc.URL != "" {
			rec.PDFURL = loc.URL
		}
	}
	rec.QualityScore = normalize.Score(rec)
	return rec
}

func (o *Orchestrator) lookupUnpaywall(ctx context.Context, doi string) (*unpaywallWork, error) {
	reqURL := fmt.Sprintf("%s/%s?email=%s", unpaywallBase, url.PathEscape(doi), url.QueryEscape(o.Config.UnpaywallEmail))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", o.Config.UserAgent)
	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unpaywall: status %d for %s", resp.StatusCode, doi)
	}
	var work unpaywallWork
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return nil, fmt.Errorf("unpaywall: decoding %s: %w", doi, err)
	}
	// Pace successive lookups; cancellation just ends the pass early.
	select {
	case <-ctx.Done():
	case <-time.After(unpaywallDelay):
	}
	return &work, nil
}
