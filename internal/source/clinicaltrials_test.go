// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/biosearch/pkg/types"
)

// testCfg is the adapter config used throughout the source tests: no
// pacing, short timeout.
var testCfg = types.FetchConfig{
	HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "biosearch-test"},
}

func swapBase(t *testing.T, base *string, url string) {
	t.Helper()
	old := *base
	*base = url
	t.Cleanup(func() { *base = old })
}

func ctStudyJSON(nct, title string) map[string]any {
	return map[string]any{
		"protocolSection": map[string]any{
			"identificationModule": map[string]any{
				"nctId":      nct,
				"briefTitle": title,
			},
			"statusModule": map[string]any{
				"overallStatus":   "Recruiting",
				"startDateStruct": map[string]any{"date": "2024-01"},
			},
			"designModule": map[string]any{
				"phases":         []string{"PHASE2"},
				"enrollmentInfo": map[string]any{"count": 120},
			},
			"descriptionModule": map[string]any{"briefSummary": "summary"},
			"sponsorCollaboratorsModule": map[string]any{
				"leadSponsor": map[string]any{"name": "Acme"},
			},
			"eligibilityModule": map[string]any{
				"minimumAge": "18 Years",
				"maximumAge": "65 Years",
			},
			"conditionsModule": map[string]any{"conditions": []string{"Asthma"}},
		},
	}
}

func TestClinicalTrialsPagination(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pages = append(pages, q.Get("pageToken"))
		assert.Equal(t, "asthma", q.Get("query.cond"))

		resp := map[string]any{}
		if q.Get("pageToken") == "" {
			resp["studies"] = []any{ctStudyJSON("NCT001", "one"), ctStudyJSON("NCT002", "two")}
			resp["nextPageToken"] = "page2"
		} else {
			// Repeat of NCT002 must be deduplicated.
			resp["studies"] = []any{ctStudyJSON("NCT002", "two"), ctStudyJSON("NCT003", "three")}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()
	swapBase(t, &clinicalTrialsBase, srv.URL)

	a := &ClinicalTrialsAdapter{Client: srv.Client()}
	raws, err := a.Fetch(context.Background(), "asthma", 10, testCfg)
	require.NoError(t, err)
	require.Len(t, raws, 3)
	assert.Equal(t, []string{"", "page2"}, pages)

	trial := raws[0].(TrialRaw)
	assert.Equal(t, "NCT001", trial.NCTID)
	assert.Equal(t, "one", trial.Title)
	assert.Equal(t, "Recruiting", trial.Status)
	assert.Equal(t, "PHASE2", trial.Phase)
	assert.Equal(t, 120, trial.Enrollment)
	assert.Equal(t, "Acme", trial.Sponsor)
	assert.Equal(t, "18 Years", trial.MinAge)
	assert.Equal(t, []string{"Asthma"}, trial.Conditions)
	assert.Equal(t, "https://clinicaltrials.gov/study/NCT001", trial.URL)
}

func TestClinicalTrialsRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		studies := []any{}
		for i := 0; i < 5; i++ {
			studies = append(studies, ctStudyJSON(fmt.Sprintf("NCT%03d", i), "t"))
		}
		json.NewEncoder(w).Encode(map[string]any{"studies": studies, "nextPageToken": "more"})
	}))
	defer srv.Close()
	swapBase(t, &clinicalTrialsBase, srv.URL)

	a := &ClinicalTrialsAdapter{Client: srv.Client()}
	raws, err := a.Fetch(context.Background(), "asthma", 3, testCfg)
	require.NoError(t, err)
	assert.Len(t, raws, 3)
}

func TestClinicalTrialsFirstPageFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusNotFound)
	}))
	defer srv.Close()
	swapBase(t, &clinicalTrialsBase, srv.URL)

	a := &ClinicalTrialsAdapter{Client: srv.Client()}
	raws, err := a.Fetch(context.Background(), "asthma", 10, testCfg)
	assert.Error(t, err)
	assert.Nil(t, raws)
}

func TestClinicalTrialsLaterPageFailureKeepsPartial(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, "down", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"studies":       []any{ctStudyJSON("NCT001", "one")},
			"nextPageToken": "page2",
		})
	}))
	defer srv.Close()
	swapBase(t, &clinicalTrialsBase, srv.URL)

	a := &ClinicalTrialsAdapter{Client: srv.Client()}
	raws, err := a.Fetch(context.Background(), "asthma", 10, testCfg)
	require.NoError(t, err, "accumulated pages survive a later failure")
	assert.Len(t, raws, 1)
}
