// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

// Raw record variants, one per provider. These carry the provider's fields
// in provider-native form: dates as the provider printed them, ages as free
// text, author lists unjoined. Normalization happens in internal/normalize.

// TrialRaw is a ClinicalTrials.gov study.
type TrialRaw struct {
	NCTID          string
	Title          string
	OfficialTitle  string
	Status         string
	Phase          string
	StartDate      string
	CompletionDate string
	Enrollment     int
	StudyType      string
	Interventions  []string
	Sponsor        string
	Countries      []string
	Summary        string
	Conditions     []string
	MinAge         string
	MaxAge         string
	Sex            string
	URL            string
}

func (TrialRaw) SourceID() string { return "clinicaltrials" }

// PubMedRaw is a PubMed article summary.
type PubMedRaw struct {
	PMID    string
	Title   string
	Authors []string
	Journal string
	PubDate string
	Volume  string
	Issue   string
	Pages   string
	DOI     string
	URL     string
}

func (PubMedRaw) SourceID() string { return "pubmed" }

// SemanticRaw is a Semantic Scholar paper.
type SemanticRaw struct {
	PaperID         string
	Title           string
	Abstract        string
	Authors         []string
	Year            int
	PublicationDate string
	Venue           string
	Journal         string
	CitationCount   int
	DOI             string
	PMID            string
	OpenAccessPDF   string
	URL             string
}

func (SemanticRaw) SourceID() string { return "semantic_scholar" }

// PreprintRaw is a bioRxiv or medRxiv preprint. Server tags which of the
// two mirrors produced it.
type PreprintRaw struct {
	Server   string
	DOI      string
	Title    string
	Abstract string
	Authors  string
	Date     string
	Version  string
	Category string
	PDFURL   string
	URL      string
}

func (p PreprintRaw) SourceID() string { return p.Server }

// OpenAlexRaw is an OpenAlex work. The abstract arrives as an inverted
// index (word → positions) and is reconstructed during normalization.
type OpenAlexRaw struct {
	ID                    string
	DOI                   string
	Title                 string
	AbstractInvertedIndex map[string][]int
	Authors               []string
	PublicationDate       string
	Year                  int
	Journal               string
	CitationCount         int
	IsOpenAccess          bool
	OAStatus              string
	PDFURL                string
	URL                   string
}

func (OpenAlexRaw) SourceID() string { return "openalex" }

// EuropePMCRaw is a Europe PMC result.
type EuropePMCRaw struct {
	PMID          string
	PMCID         string
	DOI           string
	Title         string
	Abstract      string
	Authors       []string
	Journal       string
	PubDate       string
	Year          string
	CitationCount int
	IsOpenAccess  bool
	HasFullText   bool
	URL           string
	FullTextURL   string
}

func (EuropePMCRaw) SourceID() string { return "europe_pmc" }
