package scanner

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/metrics"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
	"github.com/cypherlabdev/kalshi-odds-scanner/pkg/oddsmath"
)

// bookFair is one bookmaker's de-vigged view of the mapped selection
type bookFair struct {
	bookmaker   string
	probability float64
	overround   float64
	method      models.VigMethod
	oldest      time.Time
}

// fairResult is the cross-book fair value plus the quotes behind it
type fairResult struct {
	fair   models.NormalizedProbability
	quotes []models.SportsbookQuote
	oldest time.Time
}

// fairValue de-vigs every bookmaker's line for the selection and takes the
// median. Stale or malformed quotes are dropped one by one; a bookmaker with
// no opposing outcome is skipped. Returns a drop reason when nothing usable
// remains.
func fairValue(
	sel models.SelectionRef,
	quotes []models.SportsbookQuote,
	maxStaleness time.Duration,
	now time.Time,
) (fairResult, string, error) {
	books, byBook := groupByBook(sel, quotes)

	var (
		fairs      []bookFair
		used       []models.SportsbookQuote
		sawStale   bool
		sawInvalid bool
		lastErr    error
	)

	for _, book := range books {
		latest := make(map[string]models.SportsbookQuote)
		var order []string

		for _, q := range byBook[book] {
			if err := q.Validate(); err != nil {
				sawInvalid = true
				lastErr = err
				continue
			}
			if maxStaleness > 0 && now.Sub(q.ObservedAt) > maxStaleness {
				sawStale = true
				continue
			}
			key := normalizeSelection(q.Selection)
			prev, ok := latest[key]
			if !ok {
				order = append(order, key)
			}
			if !ok || q.ObservedAt.After(prev.ObservedAt) {
				latest[key] = q
			}
		}

		target, ok := latest[normalizeSelection(sel.Selection)]
		if !ok {
			continue
		}

		var others []float64
		bookQuotes := []models.SportsbookQuote{target}
		oldest := target.ObservedAt
		for _, key := range opposingKeys(sel.MarketType, normalizeSelection(sel.Selection), order) {
			q := latest[key]
			p, _ := q.ImpliedProbability()
			others = append(others, p)
			bookQuotes = append(bookQuotes, q)
			if q.ObservedAt.Before(oldest) {
				oldest = q.ObservedAt
			}
		}
		if len(others) == 0 {
			continue
		}

		targetProb, _ := target.ImpliedProbability()
		bf := bookFair{bookmaker: book, oldest: oldest}
		var err error
		if len(others) == 1 {
			bf.method = models.VigMethodProportional
			bf.probability, _, bf.overround, err = oddsmath.RemoveVigTwoWay(targetProb, others[0])
		} else {
			bf.method = models.VigMethodPairwise
			bf.probability, bf.overround, err = oddsmath.RemoveVigPairwise(targetProb, others)
		}
		if err == nil && bf.overround < 0 {
			err = &oddsmath.DegenerateMarketError{Sum: 1 + bf.overround}
		}
		if err != nil {
			lastErr = err
			continue
		}

		fairs = append(fairs, bf)
		used = append(used, bookQuotes...)
	}

	if len(fairs) == 0 {
		switch {
		case lastErr != nil && models.IsDegenerate(lastErr):
			return fairResult{}, metrics.DropDegenerate, lastErr
		case sawStale:
			return fairResult{}, metrics.DropStale, nil
		case sawInvalid:
			return fairResult{}, metrics.DropInvalidInput, lastErr
		default:
			return fairResult{}, metrics.DropNoLine, nil
		}
	}

	probs := make([]float64, len(fairs))
	overrounds := make([]float64, len(fairs))
	method := models.VigMethodProportional
	oldest := fairs[0].oldest
	for i, f := range fairs {
		probs[i] = f.probability
		overrounds[i] = f.overround
		if f.method == models.VigMethodPairwise {
			method = models.VigMethodPairwise
		}
		if f.oldest.Before(oldest) {
			oldest = f.oldest
		}
	}

	fair, err := models.NewNormalizedProbability(median(probs), method, median(overrounds), len(fairs))
	if err != nil {
		return fairResult{}, metrics.DropDegenerate, err
	}

	return fairResult{fair: fair, quotes: used, oldest: oldest}, "", nil
}

// groupByBook keeps quotes for the mapped event and market, grouped by
// bookmaker in first-seen order.
func groupByBook(sel models.SelectionRef, quotes []models.SportsbookQuote) ([]string, map[string][]models.SportsbookQuote) {
	var books []string
	byBook := make(map[string][]models.SportsbookQuote)
	for _, q := range quotes {
		if q.EventID != sel.EventID || q.MarketType != sel.MarketType {
			continue
		}
		if _, ok := byBook[q.Bookmaker]; !ok {
			books = append(books, q.Bookmaker)
		}
		byBook[q.Bookmaker] = append(byBook[q.Bookmaker], q)
	}
	return books, byBook
}

// opposingKeys returns the outcomes the target is de-vigged against. Head to
// head and outright markets use every other outcome. Spreads and totals are
// two-way per line, so the target pairs only with the other side of its own
// point (Over X with Under X, Team -p with Opponent +p); lines left behind by
// a move never join the market.
func opposingKeys(marketType models.MarketType, target string, keys []string) []string {
	var opposing []string
	switch marketType {
	case models.MarketTypeSpreads, models.MarketTypeTotals:
		name, point, hasPoint := splitLine(target)
		for _, key := range keys {
			if key == target {
				continue
			}
			otherName, otherPoint, otherHasPoint := splitLine(key)
			if otherHasPoint != hasPoint || otherName == name {
				continue
			}
			if hasPoint {
				want := point
				if marketType == models.MarketTypeSpreads {
					want = -point
				}
				if math.Abs(otherPoint-want) > 1e-9 {
					continue
				}
			}
			opposing = append(opposing, key)
		}
	default:
		for _, key := range keys {
			if key != target {
				opposing = append(opposing, key)
			}
		}
	}
	return opposing
}

// splitLine splits a label like "over 221.5" or "thunder -3.5" into the
// outcome name and its point
func splitLine(label string) (string, float64, bool) {
	i := strings.LastIndexByte(label, ' ')
	if i < 0 {
		return label, 0, false
	}
	point, err := strconv.ParseFloat(label[i+1:], 64)
	if err != nil {
		return label, 0, false
	}
	return strings.TrimSpace(label[:i]), point, true
}

func normalizeSelection(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
