package folio

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// CashFlow is one dated flow of an investment schedule. Outflows (money
// invested) are negative, inflows (money received) are positive.
type CashFlow struct {
	On     Date
	Amount decimal.Decimal
}

// XIRRSolver finds the constant daily growth rate that makes the net future
// value of a dated cash-flow schedule equal zero. The search interval is
// segmented into exponentially finer grids looking for a sign crossing, then
// bisected: the net-future-value function is not guaranteed unimodal, so a
// plain Newton or Brent search is not safe here.
type XIRRSolver struct {
	Lo, Hi    float64 // search interval for the daily rate
	Budget    int     // maximum number of sub-segments in the coarse scan
	MaxBisect int     // bisection iteration cap
	Tolerance float64 // |f(x)| below which the root is accepted
}

// NewXIRRSolver returns a solver with the standard search parameters.
func NewXIRRSolver() XIRRSolver {
	return XIRRSolver{Lo: -0.02, Hi: 0.02, Budget: 10000, MaxBisect: 1000, Tolerance: 1e-7}
}

var (
	// ErrNoSignChange is reported when no sub-segment of the search interval
	// brackets a root within the evaluation budget.
	ErrNoSignChange = errors.New("no sign change found in search interval")
	// ErrNoConvergence is reported when bisection exhausts its iteration cap.
	ErrNoConvergence = errors.New("bisection did not converge")
)

// AnnualizeDaily converts a daily growth rate to its annual equivalent.
func AnnualizeDaily(r float64) float64 { return math.Pow(1+r, 365) - 1 }

// DailyRate solves for the daily rate of the given schedule.
//
// A trailing zero-amount flow is dropped before solving. Schedules with fewer
// than two flows, or lacking both an inflow and an outflow, fail fast with a
// descriptive error.
func (s XIRRSolver) DailyRate(flows []CashFlow) (float64, error) {
	// Drop a zero-amount final entry: it carries no information and upsets
	// the future-value simulation at the boundary.
	for len(flows) > 0 && flows[len(flows)-1].Amount.IsZero() {
		flows = flows[:len(flows)-1]
	}
	if len(flows) < 2 {
		return 0, fmt.Errorf("need at least two cash flows, got %d", len(flows))
	}

	ordered := make([]CashFlow, len(flows))
	copy(ordered, flows)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].On.Before(ordered[j].On) })

	var hasIn, hasOut bool
	first := ordered[0].On
	days := make([]float64, len(ordered))
	amounts := make([]float64, len(ordered))
	for i, f := range ordered {
		days[i] = float64(f.On.DaysSince(first))
		// Reduced precision is acceptable here: this is the final numeric
		// optimization, everything before it is exact decimal arithmetic.
		amounts[i] = f.Amount.InexactFloat64()
		if f.Amount.IsPositive() {
			hasIn = true
		}
		if f.Amount.IsNegative() {
			hasOut = true
		}
	}
	if !hasIn || !hasOut {
		return 0, errors.New("cash flows must contain at least one inflow and one outflow")
	}

	f := func(rate float64) float64 {
		return netFutureValue(days, amounts, rate)
	}

	lo, hi, err := s.scanForCrossing(f)
	if err != nil {
		return 0, err
	}
	return s.bisect(f, lo, hi)
}

// netFutureValue replays the flows in chronological order, compounding the
// running balance at the given daily rate between flow dates.
func netFutureValue(days, amounts []float64, rate float64) float64 {
	balance := 0.0
	prev := days[0]
	for i := range days {
		balance *= math.Pow(1+rate, days[i]-prev)
		balance += amounts[i]
		prev = days[i]
	}
	return balance
}

// scanForCrossing splits [Lo, Hi] into 2, 4, 8, ... equal segments (up to the
// evaluation budget) and returns the bounds of the leftmost segment whose
// endpoint values have opposite signs.
func (s XIRRSolver) scanForCrossing(f func(float64) float64) (lo, hi float64, err error) {
	for n := 2; n <= s.Budget; n *= 2 {
		step := (s.Hi - s.Lo) / float64(n)
		prevX := s.Lo
		prevY := f(prevX)
		for i := 1; i <= n; i++ {
			x := s.Lo + float64(i)*step
			y := f(x)
			if prevY == 0 {
				return prevX, prevX, nil
			}
			if (prevY < 0) != (y < 0) {
				return prevX, x, nil
			}
			prevX, prevY = x, y
		}
	}
	return 0, 0, ErrNoSignChange
}

// bisect narrows [lo, hi] until |f(mid)| is within tolerance.
func (s XIRRSolver) bisect(f func(float64) float64, lo, hi float64) (float64, error) {
	if lo == hi {
		return lo, nil // exact root found during the scan
	}
	yLo := f(lo)
	for i := 0; i < s.MaxBisect; i++ {
		mid := (lo + hi) / 2
		y := f(mid)
		if math.Abs(y) <= s.Tolerance {
			return mid, nil
		}
		if (yLo < 0) == (y < 0) {
			lo, yLo = mid, y
		} else {
			hi = mid
		}
	}
	return 0, ErrNoConvergence
}
