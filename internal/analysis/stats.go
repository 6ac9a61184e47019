package analysis

import (
	"math"
	"math/big"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}

// meanAbsDeviation computes mean(|x - mean(xs)|).
func meanAbsDeviation(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	s := 0.0
	for _, v := range xs {
		s += math.Abs(v - m)
	}
	return s / float64(len(xs))
}

// meanPresent averages the non-nil values and returns nil when there are none.
func meanPresent(xs []*float64) *float64 {
	present := make([]float64, 0, len(xs))
	for _, v := range xs {
		if v != nil {
			present = append(present, *v)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return float64Ptr(round2(mean(present)))
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// round2 rounds to two decimals the way a decimal rendering does: the exact
// binary value decides, so 1.115 (stored as 1.11499...) becomes 1.11, and
// exact ties go away from zero.
func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}

	scaled := new(big.Float).SetPrec(256).SetFloat64(math.Abs(x))
	scaled.Mul(scaled, big.NewFloat(100))
	scaled.Add(scaled, big.NewFloat(0.5))
	n, _ := scaled.Int(nil)

	units, _ := new(big.Float).SetInt(n).Float64()
	if units == 0 {
		return 0
	}
	return math.Copysign(units/100, x)
}

func float64Ptr(v float64) *float64 { return &v }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return float64Ptr(*p)
}
