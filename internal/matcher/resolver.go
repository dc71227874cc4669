// Package matcher resolves operator mapping entries into market mappings and
// suggests candidate pairs for human review.
package matcher

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

// MappingEntry is one raw entry of the mapping file
type MappingEntry struct {
	MarketKey string `mapstructure:"market_key"`
	Kalshi    struct {
		ContractID string `mapstructure:"contract_id"`
		Side       string `mapstructure:"side"`
	} `mapstructure:"kalshi"`
	Odds struct {
		EventID    string `mapstructure:"event_id"`
		MarketType string `mapstructure:"market_type"`
		Selection  string `mapstructure:"selection"`
	} `mapstructure:"odds"`
}

// Reject explains why a mapping entry was skipped
type Reject struct {
	Index int
	Key   string
	Err   error
}

func (r Reject) Error() string {
	return fmt.Sprintf("mapping entry %d (%q): %v", r.Index, r.Key, r.Err)
}

// LoadMappingFile reads the mapping file. A missing path yields no entries.
func LoadMappingFile(path string) ([]MappingEntry, error) {
	if path == "" {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var entries []MappingEntry
	if err := v.UnmarshalKey("markets", &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mappings: %w", err)
	}
	return entries, nil
}

// Resolve validates entries and returns the well-formed mappings in file
// order. Malformed or duplicate entries are reported, never fatal.
func Resolve(entries []MappingEntry) ([]models.MarketMapping, []Reject) {
	mappings := make([]models.MarketMapping, 0, len(entries))
	var rejects []Reject
	seen := make(map[string]struct{}, len(entries))

	for i, entry := range entries {
		mapping, err := resolveEntry(entry)
		if err == nil {
			if _, dup := seen[mapping.Key]; dup {
				err = fmt.Errorf("%w: duplicate market_key", models.ErrInvalidInput)
			}
		}
		if err != nil {
			rejects = append(rejects, Reject{Index: i, Key: entry.MarketKey, Err: err})
			continue
		}
		seen[mapping.Key] = struct{}{}
		mappings = append(mappings, mapping)
	}

	return mappings, rejects
}

func resolveEntry(entry MappingEntry) (models.MarketMapping, error) {
	key := strings.TrimSpace(entry.MarketKey)
	if key == "" {
		return models.MarketMapping{}, fmt.Errorf("%w: empty market_key", models.ErrInvalidInput)
	}

	contractID := strings.TrimSpace(entry.Kalshi.ContractID)
	if contractID == "" {
		return models.MarketMapping{}, fmt.Errorf("%w: empty kalshi.contract_id", models.ErrInvalidInput)
	}
	side, err := models.ParseSide(entry.Kalshi.Side)
	if err != nil {
		return models.MarketMapping{}, err
	}

	eventID := strings.TrimSpace(entry.Odds.EventID)
	selection := strings.TrimSpace(entry.Odds.Selection)
	if eventID == "" || selection == "" {
		return models.MarketMapping{}, fmt.Errorf("%w: odds.event_id and odds.selection are required", models.ErrInvalidInput)
	}
	marketType, err := models.ParseMarketType(entry.Odds.MarketType)
	if err != nil {
		return models.MarketMapping{}, err
	}

	return models.MarketMapping{
		Key:      key,
		Contract: models.ContractRef{ContractID: contractID, Side: side},
		Selection: models.SelectionRef{
			EventID:    eventID,
			MarketType: marketType,
			Selection:  selection,
		},
	}, nil
}
