// Package trial models the append-only record of calibration trials and
// the derived views the optimizer reads: best so far, recent score
// variance, and stagnation streaks.
package trial

import (
	"fmt"

	"github.com/liqcal/calibration-core/pkg/params"
)

// Record is one completed trial. Failed records carry the parameters that
// were attempted but no usable score.
type Record struct {
	Index        int           `json:"index"`
	Params       params.Vector `json:"params"`
	Score        float64       `json:"score"`
	Failed       bool          `json:"failed"`
	FailReason   string        `json:"fail_reason,omitempty"`
	Phase        string        `json:"phase,omitempty"`
	LearningRate float64       `json:"learning_rate"`
}

// Succeeded creates a successful record
func Succeeded(index int, p params.Vector, score float64, phase string, rate float64) Record {
	return Record{
		Index:        index,
		Params:       p,
		Score:        score,
		Phase:        phase,
		LearningRate: rate,
	}
}

// FailedRecord creates a failure record; its score is excluded from every
// derived view
func FailedRecord(index int, p params.Vector, reason string, phase string, rate float64) Record {
	return Record{
		Index:        index,
		Params:       p,
		Failed:       true,
		FailReason:   reason,
		Phase:        phase,
		LearningRate: rate,
	}
}

func (r Record) String() string {
	if r.Failed {
		return fmt.Sprintf("trial %d failed (%s)", r.Index, r.FailReason)
	}
	return fmt.Sprintf("trial %d score %.3f", r.Index, r.Score)
}
