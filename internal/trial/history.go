package trial

import (
	"fmt"

	"github.com/liqcal/calibration-core/pkg/utils"
)

// History is the ordered log of trial records for one run. Records are
// immutable once appended and indexes are strictly increasing. History is
// not safe for concurrent use; runs are strictly sequential.
type History struct {
	records []Record
}

// NewHistory creates an empty history
func NewHistory() *History {
	return &History{}
}

// Append adds a record. The index must be greater than the last appended
// index.
func (h *History) Append(r Record) error {
	if r.Index < 0 {
		return fmt.Errorf("trial index must be >= 0, got %d", r.Index)
	}
	if n := len(h.records); n > 0 && r.Index <= h.records[n-1].Index {
		return fmt.Errorf("trial index %d not after last index %d", r.Index, h.records[n-1].Index)
	}
	h.records = append(h.records, r)
	return nil
}

// Len returns the number of records
func (h *History) Len() int {
	return len(h.records)
}

// Last returns the most recent record
func (h *History) Last() (Record, bool) {
	if len(h.records) == 0 {
		return Record{}, false
	}
	return h.records[len(h.records)-1], true
}

// Records returns a copy of all records in trial order
func (h *History) Records() []Record {
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// Best returns the non-failed record with the minimum score. Ties are
// broken by the earliest trial index.
func (h *History) Best() (Record, bool) {
	return h.BestInRange(0, int(^uint(0)>>1))
}

// BestInRange returns the best non-failed record whose index lies in
// [lo, hi].
func (h *History) BestInRange(lo, hi int) (Record, bool) {
	var best Record
	found := false
	for _, r := range h.records {
		if r.Failed || r.Index < lo || r.Index > hi {
			continue
		}
		if !found || r.Score < best.Score {
			best = r
			found = true
		}
	}
	return best, found
}

// SuccessCount returns the number of non-failed records
func (h *History) SuccessCount() int {
	n := 0
	for _, r := range h.records {
		if !r.Failed {
			n++
		}
	}
	return n
}

// FailureCount returns the number of failed records
func (h *History) FailureCount() int {
	return len(h.records) - h.SuccessCount()
}

// LastSuccessful returns up to n most recent non-failed records, oldest
// first. Strategies use the final two as the finite-difference pair.
func (h *History) LastSuccessful(n int) []Record {
	return h.LastSuccessfulInRange(0, int(^uint(0)>>1), n)
}

// LastSuccessfulInRange returns up to n most recent non-failed records
// with index in [lo, hi], oldest first.
func (h *History) LastSuccessfulInRange(lo, hi, n int) []Record {
	if n <= 0 {
		return nil
	}
	out := make([]Record, 0, n)
	for i := len(h.records) - 1; i >= 0 && len(out) < n; i-- {
		r := h.records[i]
		if r.Failed || r.Index < lo || r.Index > hi {
			continue
		}
		out = append(out, r)
	}
	// Reverse into trial order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// RecentVariance returns the population variance of the last k non-failed
// scores. With fewer than k successes it covers what exists; with none it
// is 0.
func (h *History) RecentVariance(k int) float64 {
	recent := h.LastSuccessful(k)
	scores := make([]float64, len(recent))
	for i, r := range recent {
		scores[i] = r.Score
	}
	return utils.Variance(scores)
}

// NoImprovementStreak returns the number of consecutive records, failures
// included, appended since the last new best score.
func (h *History) NoImprovementStreak() int {
	bestIdx := -1
	best := 0.0
	found := false
	for _, r := range h.records {
		if r.Failed {
			continue
		}
		if !found || r.Score < best {
			best = r.Score
			bestIdx = r.Index
			found = true
		}
	}
	if !found {
		return len(h.records)
	}
	streak := 0
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].Index == bestIdx {
			break
		}
		streak++
	}
	return streak
}
