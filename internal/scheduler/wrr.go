package scheduler

import "github.com/tomtom215/rxh/internal/ring"

// wrr is a weighted round-robin scheduler. It pre-expands the backend list
// into a flat cycle where each backend's copies are contiguous and appear in
// input order, then delegates iteration to a Ring.
type wrr struct {
	cycle *ring.Ring[string]
}

func newWRR(backends []Backend) *wrr {
	cycle := make([]string, 0, cycleLength(backends))
	for _, b := range backends {
		for i := 0; i < b.Weight; i++ {
			cycle = append(cycle, b.Address)
		}
	}
	return &wrr{cycle: ring.New(cycle)}
}

func cycleLength(backends []Backend) int {
	n := 0
	for _, b := range backends {
		n += b.Weight
	}
	return n
}

// Next returns the next backend address in weighted round-robin order.
func (w *wrr) Next() string {
	return w.cycle.Next()
}
