package scanner

import (
	"math"
	"sort"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

// AggregateOpportunities groups alerts by mapping key and direction, keeps
// the most recent alert of each group as its representative and ranks groups
// by edge_cents * sqrt(liquidity) * (1 + ln(1 + books)), best first.
func AggregateOpportunities(alerts []models.Alert) []models.Opportunity {
	groups := make(map[dedupeKey]*models.Opportunity)
	var order []dedupeKey

	for _, a := range alerts {
		key := dedupeKey{mappingKey: a.MappingKey, direction: a.Direction}
		opp, ok := groups[key]
		if !ok {
			opp = &models.Opportunity{}
			groups[key] = opp
			order = append(order, key)
		}
		opp.AlertCount++
		if opp.AlertCount > 1 && !a.EmittedAt.After(opp.LastSeen) {
			continue
		}

		opp.MappingKey = a.MappingKey
		opp.Direction = a.Direction
		opp.ContractID = a.ContractID
		opp.ContractPrice = a.ContractPrice
		opp.Liquidity = a.Liquidity
		opp.FairProbability = a.FairProbability
		opp.BookCount = a.BookCount
		opp.EdgeBps = a.EdgeBps
		opp.Bucket = a.Bucket
		opp.LastSeen = a.EmittedAt
		opp.RankScore = rankScore(a.EdgeBps, a.Liquidity, a.BookCount)
	}

	opportunities := make([]models.Opportunity, 0, len(order))
	for _, key := range order {
		opportunities = append(opportunities, *groups[key])
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].RankScore > opportunities[j].RankScore
	})
	return opportunities
}

func rankScore(edgeBps float64, liquidity int64, books int) float64 {
	if edgeBps <= 0 || liquidity <= 0 {
		return 0
	}
	edgeCents := edgeBps / 100
	return edgeCents * math.Sqrt(float64(liquidity)) * (1 + math.Log1p(float64(books)))
}
