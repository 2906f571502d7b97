package helpers

import (
	"math/big"

	"github.com/tidwall/gjson"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
	"github.com/slothagent/sloth-agent-sub003/u128"
)

// amountFromJSON parses a Unit-scaled decimal amount string through the
// 128-bit wire bound, so definitions cannot smuggle in oversized values.
func amountFromJSON(v gjson.Result) (*big.Int, error) {
	parsed, err := u128.FromString(v.String())
	if err != nil {
		return nil, shared.ErrInvalidCurveParameters
	}
	return u128.ToBig(parsed), nil
}

// CurveDefinitionFromJSON parses an administrative curve definition:
//
//	{
//	  "kind": "bin_schedule",
//	  "binWidthBps": 2000,
//	  "binCount": 5,
//	  "coefficient": 2,
//	  "distribution": [240, 290, ...],
//	  "percentOfLiquidityBps": 8000,
//	  "reserveAtLaunch": "5000000000000000000"
//	}
//
// or, for kind "reserve_ratio": ratioBps, virtualReserve, virtualSupply.
// Amounts are decimal strings, Unit-scaled. Validation beyond shape is left
// to Registry.Register.
func CurveDefinitionFromJSON(data []byte) (bondingcurve.CurveParams, error) {
	if !gjson.ValidBytes(data) {
		return bondingcurve.CurveParams{}, shared.ErrInvalidCurveParameters
	}
	root := gjson.ParseBytes(data)

	p := bondingcurve.CurveParams{
		PercentOfLiquidityBps: uint32(root.Get("percentOfLiquidityBps").Uint()),
	}
	if v := root.Get("reserveAtLaunch"); v.Exists() {
		amt, err := amountFromJSON(v)
		if err != nil {
			return bondingcurve.CurveParams{}, err
		}
		p.ReserveAtLaunch = amt
	}

	switch root.Get("kind").String() {
	case "bin_schedule":
		p.Kind = shared.CurveKindBinSchedule
		p.BinWidthBps = uint32(root.Get("binWidthBps").Uint())
		p.BinCount = uint32(root.Get("binCount").Uint())
		p.Coefficient = uint32(root.Get("coefficient").Uint())
		if dist := root.Get("distribution"); dist.IsArray() {
			for _, w := range dist.Array() {
				p.Distribution = append(p.Distribution, uint32(w.Uint()))
			}
			p.BinCount = uint32(len(p.Distribution))
		}
	case "reserve_ratio":
		p.Kind = shared.CurveKindReserveRatio
		p.RatioBps = uint32(root.Get("ratioBps").Uint())
		vr, err := amountFromJSON(root.Get("virtualReserve"))
		if err != nil {
			return bondingcurve.CurveParams{}, err
		}
		vs, err := amountFromJSON(root.Get("virtualSupply"))
		if err != nil {
			return bondingcurve.CurveParams{}, err
		}
		p.VirtualReserve = vr
		p.VirtualSupply = vs
	default:
		return bondingcurve.CurveParams{}, shared.ErrInvalidCurveParameters
	}
	return p, nil
}
