package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how far a background run of the machine has advanced,
// counted in machine steps.
type ProgressBar struct {
	sync.Mutex
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished adds a certain amount to the finished steps.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// Progress returns the completed fraction in the range of [0, 1].
func (b *ProgressBar) Progress() float64 {
	b.Lock()
	defer b.Unlock()

	if b.Total == 0 {
		return 0
	}

	return float64(b.Finished) / float64(b.Total)
}
