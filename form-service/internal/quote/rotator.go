// Package quote keeps the rotating banner text shown above the report form.
package quote

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

var WasteQuotes = []string{
	`"A clean city starts with a single report."`,
	`"Waste on the street is a problem. Reporting it is a solution."`,
	`"Don't walk past the mess. Report it and help clean your city."`,
	`"Every report is a step towards a greener tomorrow."`,
	`"City pride begins with clean streets."`,
}

// Rotator advances through a fixed quote list on its own ticker. It is
// independent of report submissions.
type Rotator struct {
	quotes   []string
	interval time.Duration

	mu  sync.RWMutex
	idx int
}

func NewRotator(quotes []string, interval time.Duration) *Rotator {
	r := &Rotator{quotes: quotes, interval: interval}
	if len(quotes) > 0 {
		r.idx = rand.Intn(len(quotes))
	}
	return r
}

// Start advances the quote every interval until ctx is done.
func (r *Rotator) Start(ctx context.Context) {
	if len(r.quotes) == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Next()
			}
		}
	}()
}

// Next moves to the following quote and returns it.
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.quotes) == 0 {
		return ""
	}
	r.idx = (r.idx + 1) % len(r.quotes)
	return r.quotes[r.idx]
}

func (r *Rotator) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.quotes) == 0 {
		return ""
	}
	return r.quotes[r.idx]
}
