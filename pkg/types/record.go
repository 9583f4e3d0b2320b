// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the biosearch pipeline.
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import "time"

// Source category identifiers used by the registry and the scorer.
const (
	CategoryClinicalTrials = "clinical_trials"
	CategoryLiterature     = "literature"
	CategoryPreprint       = "preprint"
)

// Record is the canonical, normalized shape every source maps into.
// Clinical-trial sources populate the trial fields; literature and preprint
// sources populate the publication fields. All text fields are cleaned
// (trimmed, internal whitespace collapsed) before a Record is built.
type Record struct {
	// SourceID identifies the provider this record came from (registry id).
	SourceID string `json:"source_id" yaml:"source_id"`

	// ExternalID is the provider's own identifier (NCT id, PMID, paper id,
	// OpenAlex id, DOI for preprints). May be empty.
	ExternalID string `json:"external_id" yaml:"external_id"`

	// Title is the record title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the abstract or brief summary, when the provider has one.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// PrimaryDate is the main date of the record (publication or start date)
	// in canonical YYYY-MM-DD form. Empty when no input format matched.
	PrimaryDate string `json:"primary_date,omitempty" yaml:"primary_date,omitempty"`

	// URL points at the provider's human-readable page for the record.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Clinical-trial fields.

	// Status is the normalized trial status (RECRUITING, ACTIVE, COMPLETED,
	// TERMINATED, ...; UNKNOWN when the provider reported nothing).
	Status string `json:"status,omitempty" yaml:"status,omitempty"`

	// Phase is the normalized trial phase (PHASE_1 .. PHASE_4,
	// EARLY_PHASE_1, or UNKNOWN).
	Phase string `json:"phase,omitempty" yaml:"phase,omitempty"`

	// Enrollment is the participant count; zero when absent.
	Enrollment int `json:"enrollment,omitempty" yaml:"enrollment,omitempty"`

	// MinAgeYears and MaxAgeYears are eligibility bounds converted to
	// fractional years. Nil when the provider's free-text age was
	// unparseable — never zero in that case.
	MinAgeYears *float64 `json:"min_age_years,omitempty" yaml:"min_age_years,omitempty"`
	MaxAgeYears *float64 `json:"max_age_years,omitempty" yaml:"max_age_years,omitempty"`

	// Sponsor is the lead sponsor name.
	Sponsor string `json:"sponsor,omitempty" yaml:"sponsor,omitempty"`

	// Conditions is the comma-joined condition list.
	Conditions string `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// StartDate and CompletionDate are canonical YYYY-MM-DD trial dates.
	StartDate      string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	CompletionDate string `json:"completion_date,omitempty" yaml:"completion_date,omitempty"`

	// Literature fields.

	// Authors is the comma-joined author list, possibly ending in "et al.".
	Authors string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Journal is the journal or venue name.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// CitationCount is the provider-reported citation count.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// DOI is the bare DOI (no https://doi.org/ prefix).
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed identifier when the provider reports one.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// PDFURL links to a free full-text PDF when one is known, either from
	// the provider directly or from the open-access enrichment pass.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// OpenAccess reports whether a free version of the record is available.
	OpenAccess bool `json:"open_access,omitempty" yaml:"open_access,omitempty"`

	// HasFullText reports whether the provider offers mined full text.
	HasFullText bool `json:"has_full_text,omitempty" yaml:"has_full_text,omitempty"`

	// QualityScore is a deterministic completeness/credibility score in
	// [0,100]. Recomputing it from the same normalized fields always
	// yields the same value.
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`

	// FetchedAt is when the raw record was retrieved; NormalizedAt is when
	// it was mapped into this shape.
	FetchedAt    time.Time `json:"fetched_at" yaml:"fetched_at"`
	NormalizedAt time.Time `json:"normalized_at" yaml:"normalized_at"`
}

// Map flattens the record into plain nested maps/lists/scalars so storage
// and transport collaborators can persist it without knowledge of this type.
// Zero-valued optional fields are omitted.
func (r Record) Map() map[string]any {
	m := map[string]any{
		"source_id":     r.SourceID,
		"external_id":   r.ExternalID,
		"title":         r.Title,
		"quality_score": r.QualityScore,
		"fetched_at":    r.FetchedAt.UTC().Format(time.RFC3339),
		"normalized_at": r.NormalizedAt.UTC().Format(time.RFC3339),
	}
	putStr := func(key, val string) {
		if val != "" {
			m[key] = val
		}
	}
	putStr("abstract", r.Abstract)
	putStr("primary_date", r.PrimaryDate)
	putStr("url", r.URL)
	putStr("status", r.Status)
	putStr("phase", r.Phase)
	putStr("sponsor", r.Sponsor)
	putStr("conditions", r.Conditions)
	putStr("start_date", r.StartDate)
	putStr("completion_date", r.CompletionDate)
	putStr("authors", r.Authors)
	putStr("journal", r.Journal)
	putStr("doi", r.DOI)
	putStr("pmid", r.PMID)
	putStr("pdf_url", r.PDFURL)
	if r.Enrollment > 0 {
		m["enrollment"] = r.Enrollment
	}
	if r.MinAgeYears != nil {
		m["min_age_years"] = *r.MinAgeYears
	}
	if r.MaxAgeYears != nil {
		m["max_age_years"] = *r.MaxAgeYears
	}
	if r.CitationCount > 0 {
		m["citation_count"] = r.CitationCount
	}
	if r.OpenAccess {
		m["open_access"] = true
	}
	if r.HasFullText {
		m["has_full_text"] = true
	}
	return m
}

// SourceResult holds one source's outcome from a single orchestrator run.
// RawCount is the number of raw records fetched before normalization;
// len(Records) may be smaller when individual records failed to normalize.
type SourceResult struct {
	// SourceID identifies the provider.
	SourceID string `json:"source_id" yaml:"source_id"`

	// Records are the normalized records in fetch order.
	Records []Record `json:"records" yaml:"records"`

	// RawCount is the pre-normalization record count.
	RawCount int `json:"raw_count" yaml:"raw_count"`

	// Err carries the error message when the source was unavailable.
	// Empty on success or partial success.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Map flattens the source result for storage/transport collaborators.
func (sr SourceResult) Map() map[string]any {
	records := make([]any, 0, len(sr.Records))
	for _, r := range sr.Records {
		records = append(records, r.Map())
	}
	m := map[string]any{
		"source_id":    sr.SourceID,
		"raw_count":    sr.RawCount,
		"record_count": len(sr.Records),
		"records":      records,
	}
	if sr.Err != "" {
		m["error"] = sr.Err
	}
	return m
}
