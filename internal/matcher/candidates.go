package matcher

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

const (
	// DefaultCandidateThreshold is the similarity a suggestion must exceed
	DefaultCandidateThreshold = 0.75
	maxCandidates             = 50
)

// Candidate is an advisory contract/selection pairing for human review
type Candidate struct {
	Contract  models.Contract  `json:"contract"`
	Selection models.Selection `json:"selection"`
	Score     float64          `json:"score"`
}

// SuggestCandidates scores every contract title against every selection and
// returns pairs scoring strictly above threshold, best first. Identities already bound
// by an existing mapping are skipped. Nothing here creates a mapping.
func SuggestCandidates(
	contracts []models.Contract,
	selections []models.Selection,
	threshold float64,
	existing []models.MarketMapping,
) []Candidate {
	mappedContracts := make(map[string]struct{}, len(existing))
	mappedSelections := make(map[models.SelectionRef]struct{}, len(existing))
	for _, m := range existing {
		mappedContracts[m.Contract.ContractID] = struct{}{}
		mappedSelections[m.Selection] = struct{}{}
	}

	var candidates []Candidate
	for _, contract := range contracts {
		if _, ok := mappedContracts[contract.ContractID]; ok {
			continue
		}
		title := normalize(contract.Title)

		for _, sel := range selections {
			ref := models.SelectionRef{EventID: sel.EventID, MarketType: sel.MarketType, Selection: sel.Label}
			if _, ok := mappedSelections[ref]; ok {
				continue
			}

			score := Similarity(title, normalize(sel.Label))
			if sel.EventTitle != "" {
				if s := Similarity(title, normalize(sel.EventTitle)); s > score {
					score = s
				}
			}
			if score > threshold {
				candidates = append(candidates, Candidate{Contract: contract, Selection: sel, Score: score})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates
}

// Similarity returns 2*LCS/(len(a)+len(b)) over runes, in [0, 1]
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}

	return 2 * float64(prev[len(rb)]) / float64(len(ra)+len(rb))
}

// normalize lowercases, strips punctuation and sorts tokens so word order
// does not affect the score.
func normalize(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)

	tokens := strings.Fields(cleaned)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
