// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry enumerates the external biomedical data providers the
// pipeline can query. Adding a new provider means adding one entry here and
// one adapter in internal/source; nothing else in the core changes.
package registry

import (
	"fmt"
	"strings"

	"github.com/pdiddy/biosearch/pkg/types"
)

// Source describes one external data provider.
type Source struct {
	// ID is the stable identifier used in requests and results.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable display name.
	Name string `json:"name" yaml:"name"`

	// Description is a one-line summary for UI collaborators.
	Description string `json:"description" yaml:"description"`

	// URL is the provider's home page.
	URL string `json:"url" yaml:"url"`

	// Category groups providers for normalization and scoring:
	// clinical_trials, literature, or preprint.
	Category string `json:"category" yaml:"category"`
}

// sources is the static provider table, in display order.
var sources = []Source{
	{
		ID:          "clinicaltrials",
		Name:        "ClinicalTrials.gov",
		Description: "NIH registry of clinical studies",
		URL:         "https://clinicaltrials.gov",
		Category:    types.CategoryClinicalTrials,
	},
	{
		ID:          "pubmed",
		Name:        "PubMed",
		Description: "NLM biomedical literature index",
		URL:         "https://pubmed.ncbi.nlm.nih.gov",
		Category:    types.CategoryLiterature,
	},
	{
		ID:          "semantic_scholar",
		Name:        "Semantic Scholar",
		Description: "Academic search with citation analysis and open-access PDFs",
		URL:         "https://www.semanticscholar.org",
		Category:    types.CategoryLiterature,
	},
	{
		ID:          "biorxiv",
		Name:        "bioRxiv",
		Description: "Biology preprint server",
		URL:         "https://www.biorxiv.org",
		Category:    types.CategoryPreprint,
	},
	{
		ID:          "medrxiv",
		Name:        "medRxiv",
		Description: "Medical preprint server",
		URL:         "https://www.medrxiv.org",
		Category:    types.CategoryPreprint,
	},
	{
		ID:          "openalex",
		Name:        "OpenAlex",
		Description: "Open scholarly database with citation networks",
		URL:         "https://openalex.org",
		Category:    types.CategoryLiterature,
	},
	{
		ID:          "europe_pmc",
		Name:        "Europe PMC",
		Description: "European biomedical literature database with full-text mining",
		URL:         "https://europepmc.org",
		Category:    types.CategoryLiterature,
	},
}

// All returns every registered source in display order. The returned slice
// is a copy.
func All() []Source {
	out := make([]Source, len(sources))
	copy(out, sources)
	return out
}

// ByCategory returns the sources in the given category, in display order.
func ByCategory(category string) []Source {
	var out []Source
	for _, s := range sources {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// Lookup returns the source with the given id.
func Lookup(id string) (Source, bool) {
	for _, s := range sources {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

// Literature reports whether the source with the given id returns
// publication records (literature or preprint category). Such records are
// eligible for the open-access enrichment pass.
func Literature(id string) bool {
	s, ok := Lookup(id)
	return ok && (s.Category == types.CategoryLiterature || s.Category == types.CategoryPreprint)
}

// Validate checks that ids is non-empty and every entry is registered.
func Validate(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("no sources requested: choose at least one of %s", idList())
	}
	for _, id := range ids {
		if _, ok := Lookup(id); !ok {
			return fmt.Errorf("unknown source %q: known sources are %s", id, idList())
		}
	}
	return nil
}

func idList() string {
	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.ID
	}
	return strings.Join(ids, ", ")
}
