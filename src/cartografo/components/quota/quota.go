package quota

import (
	"errors"
	"sync"
)

// ErrExhausted is returned when a debit would push consumption past the
// daily limit. The debit is refused, never clamped.
var ErrExhausted = errors.New("daily API quota exhausted")

// Budget tracks consumed vs. allotted call units for one accounting day.
// All mutation goes through TryDebit, a single compare-and-increment under
// the mutex, so concurrent fetchers cannot overshoot the limit.
type Budget struct {
	mu            sync.Mutex
	dailyLimit    int
	consumed      int
	warnThreshold float64
	warned        bool
}

func NewBudget(dailyLimit int, warnThreshold float64) *Budget {
	if warnThreshold <= 0 || warnThreshold > 1 {
		warnThreshold = 0.8
	}
	return &Budget{dailyLimit: dailyLimit, warnThreshold: warnThreshold}
}

// TryDebit consumes units iff they fit within the daily limit. The returned
// warn flag fires exactly once per accounting day, on the debit that crosses
// the warn threshold; it re-arms only on Reset.
func (b *Budget) TryDebit(units int) (warn bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consumed+units > b.dailyLimit {
		return false, ErrExhausted
	}
	b.consumed += units

	if !b.warned && float64(b.consumed) >= b.warnThreshold*float64(b.dailyLimit) {
		b.warned = true
		return true, nil
	}
	return false, nil
}

func (b *Budget) Consumed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consumed
}

func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dailyLimit - b.consumed
}

func (b *Budget) Utilization() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dailyLimit == 0 {
		return 1
	}
	return float64(b.consumed) / float64(b.dailyLimit)
}

// Reset starts a new accounting day and re-arms the warn advisory.
func (b *Budget) Reset(dailyLimit int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dailyLimit = dailyLimit
	b.consumed = 0
	b.warned = false
}
