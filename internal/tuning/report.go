package tuning

import (
	"fmt"
	"strings"

	"github.com/liqcal/calibration-core/pkg/params"
)

// ParamDelta is one parameter's movement from the seed to the best vector.
type ParamDelta struct {
	Name  params.Name
	Seed  float64
	Best  float64
	Delta float64
}

// Report summarizes a finished run: seed versus best, improvement, and
// trial counts. Build one with Summarize.
type Report struct {
	RunID    string
	Strategy string

	SeedScore    float64
	HasSeedScore bool
	BestScore    float64
	BestTrial    int
	BestFound    bool

	// ImprovementPct is the relative score reduction from the seed trial
	// to the best trial, in percent. Only meaningful when both exist.
	ImprovementPct float64

	Deltas []ParamDelta

	Trials            int
	Successes         int
	Failures          int
	Converged         bool
	ConvergenceReason string
	FinalRate         float64
}

// Summarize builds the final analysis for a run result.
func Summarize(res *Result) Report {
	rep := Report{
		RunID:             res.RunID,
		Strategy:          res.Strategy,
		BestFound:         res.BestFound,
		Trials:            res.Trials,
		Successes:         res.Successes,
		Failures:          res.Failures,
		Converged:         res.Converged,
		ConvergenceReason: res.ConvergenceReason,
		FinalRate:         res.FinalRate,
	}
	if !res.BestFound {
		return rep
	}

	rep.BestScore = res.Best.Score
	rep.BestTrial = res.Best.Index

	if recs := res.History.Records(); len(recs) > 0 && !recs[0].Failed {
		rep.SeedScore = recs[0].Score
		rep.HasSeedScore = true
		if rep.SeedScore > 0 {
			rep.ImprovementPct = (rep.SeedScore - rep.BestScore) / rep.SeedScore * 100
		}
	}

	for _, n := range params.Names() {
		seed := res.Seed.Value(n)
		best := res.Best.Params.Value(n)
		rep.Deltas = append(rep.Deltas, ParamDelta{
			Name:  n,
			Seed:  seed,
			Best:  best,
			Delta: best - seed,
		})
	}
	return rep
}

// String renders the report for terminal output.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s): %d trials, %d ok, %d failed\n",
		r.RunID, r.Strategy, r.Trials, r.Successes, r.Failures)

	if !r.BestFound {
		b.WriteString("no successful trials; no best parameters found\n")
		return b.String()
	}

	if r.HasSeedScore {
		fmt.Fprintf(&b, "seed score %.3f -> best score %.3f at trial %d (%.1f%% improvement)\n",
			r.SeedScore, r.BestScore, r.BestTrial, r.ImprovementPct)
	} else {
		fmt.Fprintf(&b, "best score %.3f at trial %d\n", r.BestScore, r.BestTrial)
	}

	for _, d := range r.Deltas {
		fmt.Fprintf(&b, "  %-26s %10.3f -> %10.3f (%+.3f)\n", d.Name, d.Seed, d.Best, d.Delta)
	}

	if r.Converged {
		fmt.Fprintf(&b, "converged: %s\n", r.ConvergenceReason)
	}
	fmt.Fprintf(&b, "final learning rate %.4f\n", r.FinalRate)
	return b.String()
}
