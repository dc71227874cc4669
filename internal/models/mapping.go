package models

// ContractRef identifies one side of a prediction-market contract
type ContractRef struct {
	ContractID string `json:"contract_id" mapstructure:"contract_id"`
	Side       Side   `json:"side" mapstructure:"side"`
}

// SelectionRef identifies one sportsbook selection
type SelectionRef struct {
	EventID    string     `json:"event_id" mapstructure:"event_id"`
	MarketType MarketType `json:"market_type" mapstructure:"market_type"`
	Selection  string     `json:"selection" mapstructure:"selection"`
}

// MarketMapping binds a contract side to a sportsbook selection under an
// operator-chosen key. Mappings are read-only for the lifetime of a run.
type MarketMapping struct {
	Key       string       `json:"market_key"`
	Contract  ContractRef  `json:"kalshi"`
	Selection SelectionRef `json:"odds"`
}
