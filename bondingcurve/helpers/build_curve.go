// Package helpers builds curve parameters from human-readable inputs.
// Decimal arithmetic lives here, at construction time only; the trading
// path is integer fixed point throughout.
package helpers

import (
	"github.com/shopspring/decimal"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// BuildUniformDistribution splits Basis evenly across binCount bins, the
// first bin absorbing the remainder so the weights sum exactly to Basis.
func BuildUniformDistribution(binCount int) ([]uint32, error) {
	if binCount < 1 || binCount > shared.MaxBinCount {
		return nil, shared.ErrInvalidCurveParameters
	}
	base := shared.Basis / binCount
	if base == 0 {
		return nil, shared.ErrInvalidCurveParameters
	}
	out := make([]uint32, binCount)
	for i := range out {
		out[i] = uint32(base)
	}
	out[0] += uint32(shared.Basis - base*binCount)
	return out, nil
}

// BuildBellDistribution produces a rise-then-fall weight profile like the
// launch curves shipped with the original factory: weights follow a
// triangular shape peaked at the middle bin, normalized to sum to Basis.
func BuildBellDistribution(binCount int) ([]uint32, error) {
	if binCount < 1 || binCount > shared.MaxBinCount {
		return nil, shared.ErrInvalidCurveParameters
	}
	weights := make([]decimal.Decimal, binCount)
	total := decimal.Zero
	mid := decimal.NewFromInt(int64(binCount - 1)).Div(decimal.NewFromInt(2))
	span := mid.Add(decimal.NewFromInt(1))
	for i := range weights {
		dist := decimal.NewFromInt(int64(i)).Sub(mid).Abs()
		weights[i] = span.Sub(dist)
		total = total.Add(weights[i])
	}

	basis := decimal.NewFromInt(shared.Basis)
	out := make([]uint32, binCount)
	assigned := int64(0)
	for i, w := range weights {
		share := w.Mul(basis).Div(total).Floor().IntPart()
		if share < 1 {
			share = 1
		}
		out[i] = uint32(share)
		assigned += share
	}
	// the peak bin absorbs the normalization remainder
	peak := binCount / 2
	rem := int64(shared.Basis) - assigned
	if rem < 0 || int64(out[peak])+rem < 1 {
		return nil, shared.ErrInvalidCurveParameters
	}
	out[peak] = uint32(int64(out[peak]) + rem)
	return out, nil
}

// BuildBellCurve assembles a bin-schedule CurveParams with a bell-shaped
// distribution.
func BuildBellCurve(binCount int, binWidthBps, coefficient, percentOfLiquidityBps uint32) (bondingcurve.CurveParams, error) {
	dist, err := BuildBellDistribution(binCount)
	if err != nil {
		return bondingcurve.CurveParams{}, err
	}
	return bondingcurve.CurveParams{
		Kind:                  shared.CurveKindBinSchedule,
		BinWidthBps:           binWidthBps,
		Coefficient:           coefficient,
		Distribution:          dist,
		PercentOfLiquidityBps: percentOfLiquidityBps,
	}, nil
}
