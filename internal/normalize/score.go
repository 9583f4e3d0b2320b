// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"github.com/pdiddy/biosearch/pkg/types"
)

// Score computes the 0-100 quality score for a normalized record. The
// score is a deterministic function of the record fields: recomputing it
// on the same record always yields the same value. Each source has its own
// weighted checklist, tuned to which fields that provider can actually
// supply.
func Score(r types.Record) float64 {
	var s float64
	switch r.SourceID {
	case "clinicaltrials":
		s = scoreTrial(r)
	case "pubmed":
		s = scorePubMed(r)
	case "semantic_scholar":
		s = scoreSemantic(r)
	case "biorxiv", "medrxiv":
		s = scorePreprint(r)
	case "openalex":
		s = scoreOpenAlex(r)
	case "europe_pmc":
		s = scoreEuropePMC(r)
	}
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func scoreTrial(r types.Record) float64 {
	var s float64
	if r.ExternalID != "" {
		s += 10
	}
	if r.Title != "" {
		s += 10
	}
	if r.Status != "" && r.Status != "UNKNOWN" {
		s += 10
	}
	if r.Phase != "" && r.Phase != "UNKNOWN" {
		s += 10
	}
	if r.Sponsor != "" {
		s += 10
	}
	if r.Abstract != "" {
		s += 10
	}
	if r.Enrollment > 0 {
		s += 10
	}
	if r.MinAgeYears != nil {
		s += 5
	}
	if r.MaxAgeYears != nil {
		s += 5
	}
	if r.StartDate != "" {
		s += 10
	}
	if r.CompletionDate != "" {
		s += 10
	}
	return s
}

func scorePubMed(r types.Record) float64 {
	var s float64
	if r.PMID != "" {
		s += 15
	}
	if r.Title != "" {
		s += 20
	}
	if r.Authors != "" {
		s += 15
	}
	if r.Journal != "" {
		s += 15
	}
	if r.PrimaryDate != "" {
		s += 15
	}
	if r.DOI != "" {
		s += 10
	}
	return s
}

func scoreSemantic(r types.Record) float64 {
	s := 50.0
	if r.Title != "" {
		s += 10
	}
	if r.Abstract != "" {
		s += 10
	}
	if r.Authors != "" {
		s += 5
	}
	if r.DOI != "" {
		s += 5
	}
	if r.PrimaryDate != "" {
		s += 5
	}
	s += citationBonus(r.CitationCount, 10, 15)
	return s
}

func scorePreprint(r types.Record) float64 {
	s := 40.0
	if r.Title != "" {
		s += 15
	}
	if r.Abstract != "" {
		s += 15
	}
	if r.Authors != "" {
		s += 10
	}
	if r.DOI != "" {
		s += 10
	}
	if r.PDFURL != "" {
		s += 10
	}
	return s
}

func scoreOpenAlex(r types.Record) float64 {
	s := 50.0
	if r.Title != "" {
		s += 10
	}
	if r.Abstract != "" {
		s += 10
	}
	if r.Authors != "" {
		s += 5
	}
	if r.DOI != "" {
		s += 5
	}
	if r.OpenAccess {
		s += 5
	}
	s += citationBonus(r.CitationCount, 10, 15)
	return s
}

func scoreEuropePMC(r types.Record) float64 {
	s := 50.0
	if r.Title != "" {
		s += 10
	}
	if r.Abstract != "" {
		s += 10
	}
	if r.Authors != "" {
		s += 5
	}
	if r.PMID != "" {
		s += 5
	}
	if r.OpenAccess {
		s += 5
	}
	if r.HasFullText {
		s += 10
	}
	s += citationBonus(r.CitationCount, 20, 5)
	return s
}

// citationBonus awards citations/divisor points, capped at max.
func citationBonus(citations, divisor int, max float64) float64 {
	b := float64(citations) / float64(divisor)
	if b > max {
		return max
	}
	return b
}
