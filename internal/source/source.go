// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source fetches raw records from the external biomedical data
// providers. Each provider has one Adapter that speaks that provider's own
// pagination and wire protocol; the raw shapes returned here are normalized
// by internal/normalize.
//
// Adapter error contract: a systemic failure (the first request fails)
// returns (nil, err); a failure after some pages were already accumulated
// returns the accumulated records and a nil error. Single bad pages or
// items never abort a fetch.
package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/biosearch/pkg/types"
)

// Raw is a source-native record before normalization. Each adapter yields
// its own tagged variant; internal/normalize type-switches over them.
type Raw interface {
	// SourceID reports which registry source produced the record.
	SourceID() string
}

// Adapter issues one logical fetch against a single provider, walking that
// provider's pagination until limit records are accumulated or the provider
// runs out of pages. Implementations deduplicate by the provider's natural
// identifier within a call.
type Adapter interface {
	ID() string
	Fetch(ctx context.Context, term string, limit int, cfg types.FetchConfig) ([]Raw, error)
}

// ForID constructs the adapter for a registry source id.
func ForID(id string, client *http.Client) (Adapter, bool) {
	switch id {
	case "clinicaltrials":
		return &ClinicalTrialsAdapter{Client: client}, true
	case "pubmed":
		return &PubMedAdapter{Client: client}, true
	case "semantic_scholar":
		return &SemanticScholarAdapter{Client: client}, true
	case "biorxiv":
		return &PreprintAdapter{Client: client, Server: "biorxiv"}, true
	case "medrxiv":
		return &PreprintAdapter{Client: client, Server: "medrxiv"}, true
	case "openalex":
		return &OpenAlexAdapter{Client: client}, true
	case "europe_pmc":
		return &EuropePMCAdapter{Client: client}, true
	}
	return nil, false
}

// pace sleeps for the configured inter-page delay, returning early when the
// context is cancelled.
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// get issues a GET request with the shared headers. Callers own the
// response body.
func get(ctx context.Context, client *http.Client, reqURL string, cfg types.FetchConfig, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
