// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CleanText trims s and collapses internal whitespace, newlines, and tabs
// to single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// JoinList cleans each item and joins the non-empty ones with ", ".
func JoinList(items []string) string {
	var parts []string
	for _, item := range items {
		if c := CleanText(item); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, ", ")
}

// maxAuthors bounds how many author names are kept before "et al.".
const maxAuthors = 5

// JoinAuthors joins up to maxAuthors cleaned names with ", ", appending
// "et al." when the list was longer.
func JoinAuthors(names []string) string {
	var parts []string
	for _, name := range names {
		if c := CleanText(name); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) > maxAuthors {
		return strings.Join(parts[:maxAuthors], ", ") + " et al."
	}
	return strings.Join(parts, ", ")
}

// dateLayouts is the ordered candidate list for date normalization. The
// first successful parse wins; partial dates (year, year-month) resolve to
// the first day of the period. The US slash form is tried before the EU
// form, so an ambiguous slash date is read month-first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
	"January 2006",
	"January 2, 2006",
	"Jan 2006",
	"2 Jan 2006",
	"2006 Jan 2",
	"2006 Jan",
	"01/02/2006",
	"02/01/2006",
}

// NormalizeDate parses s against the candidate layouts and returns the
// canonical YYYY-MM-DD form, or "" when nothing matched. Total failure is
// not an error: records with unparseable dates keep an empty date field.
func NormalizeDate(s string) string {
	s = CleanText(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// numberPattern extracts the leading numeric value from free text.
var numberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// ExtractCount returns the first integer embedded in s, or 0.
func ExtractCount(s string) int {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return int(v)
}

// ageUnits maps age-unit substrings to the divisor converting the value to
// years.
var ageUnits = []struct {
	unit    string
	divisor float64
}{
	{"month", 12},
	{"week", 52},
	{"day", 365},
}

// AgeYears converts a free-text age bound ("18 Years", "6 Months") to
// fractional years, rounded to two decimals. Unparseable input yields nil,
// never zero.
func AgeYears(s string) *float64 {
	s = strings.ToLower(CleanText(s))
	if s == "" || s == "n/a" {
		return nil
	}
	m := numberPattern.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	for _, u := range ageUnits {
		if strings.Contains(s, u.unit) {
			v /= u.divisor
			break
		}
	}
	v = math.Round(v*100) / 100
	return &v
}

// statusTable maps trial-status substrings to canonical values, ordered
// most-specific-first so "NOT YET RECRUITING" is never swallowed by the
// bare "RECRUITING" entry.
var statusTable = []struct {
	substr string
	status string
}{
	{"ACTIVE, NOT RECRUITING", "ACTIVE"},
	{"NOT YET RECRUITING", "NOT_RECRUITING"},
	{"ENROLLING BY INVITATION", "ENROLLING"},
	{"UNKNOWN STATUS", "UNKNOWN"},
	{"RECRUITING", "RECRUITING"},
	{"COMPLETED", "COMPLETED"},
	{"TERMINATED", "TERMINATED"},
	{"WITHDRAWN", "WITHDRAWN"},
	{"SUSPENDED", "SUSPENDED"},
}

// TrialStatus maps a provider-reported trial status onto the canonical
// status enum. Unmatched values pass through upper-cased; empty input maps
// to UNKNOWN.
func TrialStatus(s string) string {
	s = strings.ToUpper(CleanText(s))
	if s == "" {
		return "UNKNOWN"
	}
	for _, entry := range statusTable {
		if strings.Contains(s, entry.substr) {
			return entry.status
		}
	}
	return s
}

// phaseTable rewrites provider phase spellings into the canonical
// PHASE_N form. Early-phase entries come first so their embedded "PHASE1"
// is not rewritten prematurely.
var phaseTable = []struct {
	old string
	new string
}{
	{"EARLY_PHASE1", "EARLY_PHASE_1"},
	{"EARLY PHASE 1", "EARLY_PHASE_1"},
	{"PHASE1", "PHASE_1"},
	{"PHASE 1", "PHASE_1"},
	{"PHASE2", "PHASE_2"},
	{"PHASE 2", "PHASE_2"},
	{"PHASE3", "PHASE_3"},
	{"PHASE 3", "PHASE_3"},
	{"PHASE4", "PHASE_4"},
	{"PHASE 4", "PHASE_4"},
}

// TrialPhase maps a provider-reported trial phase onto the canonical phase
// enum. Empty or N/A input maps to UNKNOWN.
func TrialPhase(s string) string {
	s = strings.ToUpper(CleanText(s))
	if s == "" || s == "N/A" {
		return "UNKNOWN"
	}
	for _, entry := range phaseTable {
		s = strings.ReplaceAll(s, entry.old, entry.new)
	}
	return s
}
