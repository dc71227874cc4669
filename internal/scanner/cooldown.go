package scanner

import (
	"sync"
	"time"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

// Cooldown suppresses repeat alerts for the same mapping and direction
// across cycles. A zero window allows everything.
type Cooldown struct {
	window time.Duration
	mu     sync.Mutex
	last   map[dedupeKey]time.Time
}

// NewCooldown creates a cooldown tracker
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		last:   make(map[dedupeKey]time.Time),
	}
}

// Filter returns the alerts outside their cooldown window and records them
func (c *Cooldown) Filter(alerts []models.Alert, now time.Time) (kept []models.Alert, suppressed int) {
	if c == nil || c.window <= 0 {
		return alerts, 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range alerts {
		key := dedupeKey{mappingKey: a.MappingKey, direction: a.Direction}
		if last, ok := c.last[key]; ok && now.Sub(last) < c.window {
			suppressed++
			continue
		}
		c.last[key] = now
		kept = append(kept, a)
	}
	return kept, suppressed
}
