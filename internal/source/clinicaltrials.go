// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/biosearch/internal/httputil"
	"github.com/pdiddy/biosearch/pkg/types"
)

// clinicalTrialsBase is the ClinicalTrials.gov v2 studies endpoint.
// Declared as a var so tests can substitute an httptest server.
var clinicalTrialsBase = "https://clinicaltrials.gov/api/v2/studies"

// ctFields lists the study fields requested from the API.
const ctFields = "NCTId,BriefTitle,OfficialTitle,OverallStatus,Phase,StartDate," +
	"CompletionDate,EnrollmentCount,StudyType,InterventionName,LeadSponsorName," +
	"LocationCountry,BriefSummary,Condition,MinimumAge,MaximumAge,Sex"

const ctPageSize = 100

// ClinicalTrialsAdapter fetches studies from the ClinicalTrials.gov v2 API,
// which paginates with an opaque nextPageToken.
type ClinicalTrialsAdapter struct {
	Client *http.Client
}

// ID returns the registry source id.
func (a *ClinicalTrialsAdapter) ID() string { return "clinicaltrials" }

// Fetch walks study pages until limit records are accumulated or the API
// signals no more pages. Studies are deduplicated by NCT id.
func (a *ClinicalTrialsAdapter) Fetch(ctx context.Context, term string, limit int, cfg types.FetchConfig) ([]Raw, error) {
	var out []Raw
	seen := make(map[string]bool)
	pageToken := ""

	for len(out) < limit {
		pageSize := limit - len(out)
		if pageSize > ctPageSize {
			pageSize = ctPageSize
		}

		params := url.Values{
			"query.cond": {term},
			"pageSize":   {fmt.Sprintf("%d", pageSize)},
			"format":     {"json"},
			"fields":     {ctFields},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		page, err := a.fetchPage(ctx, clinicalTrialsBase+"?"+params.Encode(), cfg)
		if err != nil {
			// First page failing means the source is unavailable; a later
			// failure degrades to whatever was already accumulated.
			if len(out) == 0 {
				return nil, err
			}
			return out, nil
		}

		for _, study := range page.Studies {
			raw := studyToRaw(study)
			if raw.NCTID == "" || seen[raw.NCTID] {
				continue
			}
			seen[raw.NCTID] = true
			out = append(out, raw)
			if len(out) >= limit {
				break
			}
		}

		if page.NextPageToken == "" || len(page.Studies) == 0 {
			break
		}
		pageToken = page.NextPageToken

		if err := pace(ctx, cfg.PageDelay); err != nil {
			return out, nil
		}
	}
	return out, nil
}

func (a *ClinicalTrialsAdapter) fetchPage(ctx context.Context, reqURL string, cfg types.FetchConfig) (*ctResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("ClinicalTrials.gov API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ClinicalTrials.gov API returned HTTP %d", resp.StatusCode)
	}

	var page ctResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("parsing ClinicalTrials.gov response: %w", err)
	}
	return &page, nil
}

// studyToRaw flattens the nested protocolSection modules into a TrialRaw.
func studyToRaw(s ctStudy) TrialRaw {
	p := s.ProtocolSection

	phase := ""
	if len(p.DesignModule.Phases) > 0 {
		phase = p.DesignModule.Phases[0]
	}

	var interventions []string
	for _, iv := range p.ArmsInterventionsModule.Interventions {
		if iv.Name != "" {
			interventions = append(interventions, iv.Name)
		}
	}

	var countries []string
	seen := make(map[string]bool)
	for _, loc := range p.ContactsLocationsModule.Locations {
		if loc.Country != "" && !seen[loc.Country] {
			seen[loc.Country] = true
			countries = append(countries, loc.Country)
		}
	}

	nct := p.IdentificationModule.NCTID
	return TrialRaw{
		NCTID:          nct,
		Title:          p.IdentificationModule.BriefTitle,
		OfficialTitle:  p.IdentificationModule.OfficialTitle,
		Status:         p.StatusModule.OverallStatus,
		Phase:          phase,
		StartDate:      p.StatusModule.StartDateStruct.Date,
		CompletionDate: p.StatusModule.CompletionDateStruct.Date,
		Enrollment:     p.DesignModule.EnrollmentInfo.Count,
		StudyType:      p.DesignModule.StudyType,
		Interventions:  interventions,
		Sponsor:        p.SponsorCollaboratorsModule.LeadSponsor.Name,
		Countries:      countries,
		Summary:        p.DescriptionModule.BriefSummary,
		Conditions:     p.ConditionsModule.Conditions,
		MinAge:         p.EligibilityModule.MinimumAge,
		MaxAge:         p.EligibilityModule.MaximumAge,
		Sex:            p.EligibilityModule.Sex,
		URL:            "https://clinicaltrials.gov/study/" + nct,
	}
}

// ClinicalTrials.gov v2 API JSON structures.
type ctResponse struct {
	Studies       []ctStudy `json:"studies"`
	NextPageToken string    `json:"nextPageToken"`
}

type ctStudy struct {
	ProtocolSection ctProtocolSection `json:"protocolSection"`
}

type ctProtocolSection struct {
	IdentificationModule       ctIdentificationModule       `json:"identificationModule"`
	StatusModule               ctStatusModule               `json:"statusModule"`
	DesignModule               ctDesignModule               `json:"designModule"`
	DescriptionModule          ctDescriptionModule          `json:"descriptionModule"`
	ArmsInterventionsModule    ctArmsInterventionsModule    `json:"armsInterventionsModule"`
	SponsorCollaboratorsModule ctSponsorCollaboratorsModule `json:"sponsorCollaboratorsModule"`
	ContactsLocationsModule    ctContactsLocationsModule    `json:"contactsLocationsModule"`
	EligibilityModule          ctEligibilityModule          `json:"eligibilityModule"`
	ConditionsModule           ctConditionsModule           `json:"conditionsModule"`
}

type ctIdentificationModule struct {
	NCTID         string `json:"nctId"`
	BriefTitle    string `json:"briefTitle"`
	OfficialTitle string `json:"officialTitle"`
}

type ctStatusModule struct {
	OverallStatus        string       `json:"overallStatus"`
	StartDateStruct      ctDateStruct `json:"startDateStruct"`
	CompletionDateStruct ctDateStruct `json:"completionDateStruct"`
}

type ctDateStruct struct {
	Date string `json:"date"`
}

type ctDesignModule struct {
	Phases         []string         `json:"phases"`
	StudyType      string           `json:"studyType"`
	EnrollmentInfo ctEnrollmentInfo `json:"enrollmentInfo"`
}

type ctEnrollmentInfo struct {
	Count int `json:"count"`
}

type ctDescriptionModule struct {
	BriefSummary string `json:"briefSummary"`
}

type ctArmsInterventionsModule struct {
	Interventions []ctIntervention `json:"interventions"`
}

type ctIntervention struct {
	Name string `json:"name"`
}

type ctSponsorCollaboratorsModule struct {
	LeadSponsor ctLeadSponsor `json:"leadSponsor"`
}

type ctLeadSponsor struct {
	Name string `json:"name"`
}

type ctContactsLocationsModule struct {
	Locations []ctLocation `json:"locations"`
}

type ctLocation struct {
	Country string `json:"country"`
}

type ctEligibilityModule struct {
	MinimumAge string `json:"minimumAge"`
	MaximumAge string `json:"maximumAge"`
	Sex        string `json:"sex"`
}

type ctConditionsModule struct {
	Conditions []string `json:"conditions"`
}
