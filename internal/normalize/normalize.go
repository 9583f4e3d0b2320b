// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps provider-native raw records onto the canonical
// Record shape and assigns each one a deterministic quality score. See
// docs/ARCHITECTURE.md § Normalization.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/biosearch/internal/source"
	"github.com/pdiddy/biosearch/pkg/types"
)

// Normalize maps one raw record into the canonical shape, cleans its text
// fields, canonicalizes dates, and computes the quality score. A record
// with neither an identifier nor a title is malformed and returns an
// error; the caller drops it and keeps going.
func Normalize(raw source.Raw, fetchedAt, now time.Time) (types.Record, error) {
	var rec types.Record
	switch v := raw.(type) {
	case source.TrialRaw:
		rec = normalizeTrial(v)
	case source.PubMedRaw:
		rec = normalizePubMed(v)
	case source.SemanticRaw:
		rec = normalizeSemantic(v)
	case source.PreprintRaw:
		rec = normalizePreprint(v)
	case source.OpenAlexRaw:
		rec = normalizeOpenAlex(v)
	case source.EuropePMCRaw:
		rec = normalizeEuropePMC(v)
	default:
		return types.Record{}, fmt.Errorf("normalize: unsupported raw type %T", raw)
	}
	if rec.ExternalID == "" && rec.Title == "" {
		return types.Record{}, fmt.Errorf("normalize: %s record has neither identifier nor title", raw.SourceID())
	}
	rec.SourceID = raw.SourceID()
	rec.FetchedAt = fetchedAt
	rec.NormalizedAt = now
	rec.QualityScore = Score(rec)
	return rec, nil
}

func normalizeTrial(v source.TrialRaw) types.Record {
	title := CleanText(v.Title)
	if title == "" {
		title = CleanText(v.OfficialTitle)
	}
	start := NormalizeDate(v.StartDate)
	return types.Record{
		ExternalID:     CleanText(v.NCTID),
		Title:          title,
		Abstract:       CleanText(v.Summary),
		PrimaryDate:    start,
		URL:            v.URL,
		Status:         TrialStatus(v.Status),
		Phase:          TrialPhase(v.Phase),
		Enrollment:     v.Enrollment,
		MinAgeYears:    AgeYears(v.MinAge),
		MaxAgeYears:    AgeYears(v.MaxAge),
		Sponsor:        CleanText(v.Sponsor),
		Conditions:     JoinList(v.Conditions),
		StartDate:      start,
		CompletionDate: NormalizeDate(v.CompletionDate),
	}
}

func normalizePubMed(v source.PubMedRaw) types.Record {
	pmid := CleanText(v.PMID)
	return types.Record{
		ExternalID:  pmid,
		Title:       CleanText(v.Title),
		PrimaryDate: NormalizeDate(v.PubDate),
		URL:         v.URL,
		Authors:     JoinAuthors(v.Authors),
		Journal:     CleanText(v.Journal),
		DOI:         CleanText(v.DOI),
		PMID:        pmid,
	}
}

func normalizeSemantic(v source.SemanticRaw) types.Record {
	date := NormalizeDate(v.PublicationDate)
	if date == "" && v.Year > 0 {
		date = NormalizeDate(strconv.Itoa(v.Year))
	}
	journal := CleanText(v.Journal)
	if journal == "" {
		journal = CleanText(v.Venue)
	}
	return types.Record{
		ExternalID:    CleanText(v.PaperID),
		Title:         CleanText(v.Title),
		Abstract:      CleanText(v.Abstract),
		PrimaryDate:   date,
		URL:           v.URL,
		Authors:       JoinAuthors(v.Authors),
		Journal:       journal,
		CitationCount: v.CitationCount,
		DOI:           CleanText(v.DOI),
		PMID:          CleanText(v.PMID),
		PDFURL:        v.OpenAccessPDF,
		OpenAccess:    v.OpenAccessPDF != "",
	}
}

func normalizePreprint(v source.PreprintRaw) types.Record {
	doi := CleanText(v.DOI)
	return types.Record{
		ExternalID:  doi,
		Title:       CleanText(v.Title),
		Abstract:    CleanText(v.Abstract),
		PrimaryDate: NormalizeDate(v.Date),
		URL:         v.URL,
		Authors:     CleanText(v.Authors),
		Journal:     CleanText(v.Category),
		DOI:         doi,
		PDFURL:      v.PDFURL,
		OpenAccess:  true,
	}
}

func normalizeOpenAlex(v source.OpenAlexRaw) types.Record {
	date := NormalizeDate(v.PublicationDate)
	if date == "" && v.Year > 0 {
		date = NormalizeDate(strconv.Itoa(v.Year))
	}
	return types.Record{
		ExternalID:    CleanText(v.ID),
		Title:         CleanText(v.Title),
		Abstract:      ReconstructAbstract(v.AbstractInvertedIndex),
		PrimaryDate:   date,
		URL:           v.URL,
		Authors:       JoinAuthors(v.Authors),
		Journal:       CleanText(v.Journal),
		CitationCount: v.CitationCount,
		DOI:           CleanText(v.DOI),
		PDFURL:        v.PDFURL,
		OpenAccess:    v.IsOpenAccess,
	}
}

func normalizeEuropePMC(v source.EuropePMCRaw) types.Record {
	pmid := CleanText(v.PMID)
	id := pmid
	if id == "" {
		id = CleanText(v.PMCID)
	}
	date := NormalizeDate(v.PubDate)
	if date == "" {
		date = NormalizeDate(v.Year)
	}
	return types.Record{
		ExternalID:    id,
		Title:         CleanText(v.Title),
		Abstract:      CleanText(v.Abstract),
		PrimaryDate:   date,
		URL:           v.URL,
		Authors:       JoinAuthors(v.Authors),
		Journal:       CleanText(v.Journal),
		CitationCount: v.CitationCount,
		DOI:           CleanText(v.DOI),
		PMID:          pmid,
		PDFURL:        v.FullTextURL,
		OpenAccess:    v.IsOpenAccess,
		HasFullText:   v.HasFullText,
	}
}

// ReconstructAbstract rebuilds an abstract from OpenAlex's inverted index
// (word → list of word positions) by laying every word back at its
// positions and joining in order.
func ReconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	type posWord struct {
		pos  int
		word string
	}
	var words []posWord
	for word, positions := range index {
		for _, p := range positions {
			words = append(words, posWord{pos: p, word: word})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].pos < words[j].pos })
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.word)
	}
	return CleanText(strings.Join(parts, " "))
}
