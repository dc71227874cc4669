package matcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

const mappingYAML = `
markets:
  - market_key: nba-okc-hou-okc
    kalshi:
      contract_id: KXNBAGAME-26FEB07HOUOKC-OKC
      side: "YES"
    odds:
      event_id: evt-okc-hou
      market_type: h2h
      selection: Oklahoma City Thunder
  - market_key: nba-okc-hou-hou
    kalshi:
      contract_id: KXNBAGAME-26FEB07HOUOKC-OKC
      side: "no"
    odds:
      event_id: evt-okc-hou
      market_type: h2h
      selection: Houston Rockets
  - market_key: broken
    kalshi:
      contract_id: KXBROKEN
      side: MAYBE
    odds:
      event_id: evt-x
      market_type: h2h
      selection: Somebody
  - market_key: nba-okc-hou-okc
    kalshi:
      contract_id: KXOTHER
      side: "YES"
    odds:
      event_id: evt-other
      market_type: h2h
      selection: Other
`

func writeMappingFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoadMappingFile_Resolve tests loading plus rejecting bad entries
func TestLoadMappingFile_Resolve(t *testing.T) {
	entries, err := LoadMappingFile(writeMappingFile(t, mappingYAML))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	mappings, rejects := Resolve(entries)
	require.Len(t, mappings, 2)
	require.Len(t, rejects, 2)

	assert.Equal(t, "nba-okc-hou-okc", mappings[0].Key)
	assert.Equal(t, models.SideYes, mappings[0].Contract.Side)
	assert.Equal(t, models.MarketTypeH2H, mappings[0].Selection.MarketType)
	assert.Equal(t, "Oklahoma City Thunder", mappings[0].Selection.Selection)
	assert.Equal(t, models.SideNo, mappings[1].Contract.Side)

	assert.Equal(t, 2, rejects[0].Index)
	assert.Equal(t, "broken", rejects[0].Key)
	assert.True(t, errors.Is(rejects[0].Err, models.ErrInvalidInput))
	assert.Equal(t, 3, rejects[1].Index)
	assert.Contains(t, rejects[1].Error(), "duplicate")
}

// TestLoadMappingFile_Missing tests the empty path and an unreadable file
func TestLoadMappingFile_Missing(t *testing.T) {
	entries, err := LoadMappingFile("")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = LoadMappingFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestResolve_RequiredFields tests each missing field
func TestResolve_RequiredFields(t *testing.T) {
	valid := func() MappingEntry {
		var e MappingEntry
		e.MarketKey = "k"
		e.Kalshi.ContractID = "C1"
		e.Kalshi.Side = "YES"
		e.Odds.EventID = "ev"
		e.Odds.MarketType = "h2h"
		e.Odds.Selection = "Team"
		return e
	}

	tests := []struct {
		name   string
		mutate func(*MappingEntry)
	}{
		{"no key", func(e *MappingEntry) { e.MarketKey = " " }},
		{"no contract", func(e *MappingEntry) { e.Kalshi.ContractID = "" }},
		{"no event", func(e *MappingEntry) { e.Odds.EventID = "" }},
		{"no selection", func(e *MappingEntry) { e.Odds.Selection = "" }},
		{"bad market", func(e *MappingEntry) { e.Odds.MarketType = "props" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid()
			tt.mutate(&e)
			mappings, rejects := Resolve([]MappingEntry{e})
			assert.Empty(t, mappings)
			require.Len(t, rejects, 1)
			assert.True(t, errors.Is(rejects[0].Err, models.ErrInvalidInput))
		})
	}

	mappings, rejects := Resolve([]MappingEntry{valid()})
	assert.Len(t, mappings, 1)
	assert.Empty(t, rejects)
}

// TestSimilarity tests the ratio bounds and order insensitivity after normalize
func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("abc", "abc"))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.Equal(t, 0.0, Similarity("", "abc"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.InDelta(t, 0.75, Similarity("abcd", "abce"), 1e-9)

	assert.Equal(t, normalize("Thunder, Oklahoma City"), normalize("oklahoma city THUNDER!"))
}

// TestSuggestCandidates tests scoring, exclusion and ordering
func TestSuggestCandidates(t *testing.T) {
	contracts := []models.Contract{
		{ContractID: "KX-OKC", Title: "Oklahoma City Thunder"},
		{ContractID: "KX-HOU", Title: "Houston Rockets"},
		{ContractID: "KX-FED", Title: "Fed cuts rates in March"},
	}
	selections := []models.Selection{
		{EventID: "ev1", EventTitle: "Houston Rockets at Oklahoma City Thunder", MarketType: models.MarketTypeH2H, Label: "Oklahoma City Thunder"},
		{EventID: "ev1", EventTitle: "Houston Rockets at Oklahoma City Thunder", MarketType: models.MarketTypeH2H, Label: "Houston Rockets"},
	}

	candidates := SuggestCandidates(contracts, selections, DefaultCandidateThreshold, nil)
	require.Len(t, candidates, 2)
	assert.Equal(t, 1.0, candidates[0].Score)
	assert.Equal(t, 1.0, candidates[1].Score)
	ids := []string{candidates[0].Contract.ContractID, candidates[1].Contract.ContractID}
	assert.ElementsMatch(t, []string{"KX-OKC", "KX-HOU"}, ids)
	for _, c := range candidates {
		assert.NotEqual(t, "KX-FED", c.Contract.ContractID)
		assert.Greater(t, c.Score, DefaultCandidateThreshold)
	}

	existing := []models.MarketMapping{{
		Key:      "nba-okc",
		Contract: models.ContractRef{ContractID: "KX-OKC", Side: models.SideYes},
		Selection: models.SelectionRef{
			EventID: "ev1", MarketType: models.MarketTypeH2H, Selection: "Oklahoma City Thunder",
		},
	}}
	candidates = SuggestCandidates(contracts, selections, DefaultCandidateThreshold, existing)
	require.Len(t, candidates, 1)
	assert.Equal(t, "KX-HOU", candidates[0].Contract.ContractID)
	assert.Equal(t, "Houston Rockets", candidates[0].Selection.Label)
}

// TestSuggestCandidates_Cap tests the suggestion ceiling
func TestSuggestCandidates_Cap(t *testing.T) {
	var contracts []models.Contract
	var selections []models.Selection
	for i := 0; i < 10; i++ {
		contracts = append(contracts, models.Contract{ContractID: fmt.Sprintf("C%d", i), Title: "Boston Celtics"})
		selections = append(selections, models.Selection{EventID: fmt.Sprintf("ev%d", i), MarketType: models.MarketTypeH2H, Label: "Boston Celtics"})
	}

	candidates := SuggestCandidates(contracts, selections, DefaultCandidateThreshold, nil)
	assert.Len(t, candidates, maxCandidates)
}

// TestSuggestCandidates_ThresholdIsExclusive tests that a score equal to the threshold is not suggested
func TestSuggestCandidates_ThresholdIsExclusive(t *testing.T) {
	contracts := []models.Contract{{ContractID: "KX-ABCD", Title: "abcd"}}
	selections := []models.Selection{{EventID: "ev1", MarketType: models.MarketTypeH2H, Label: "abce"}}

	assert.Empty(t, SuggestCandidates(contracts, selections, 0.75, nil))

	candidates := SuggestCandidates(contracts, selections, 0.7, nil)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 0.75, candidates[0].Score, 1e-12)
}
