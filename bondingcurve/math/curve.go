package math

import (
	"math/big"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// Bin-schedule pricing. Prices rise linearly with the bin index:
//
//	price_ratio(i) = (Basis + binWidthBps*i) / Basis
//	rate(i)        = initialSupply * coefficient / (Basis + binWidthBps*i)
//
// rate is tokens received per Unit of reserve, strictly decreasing in i.

func BinPriceRatio(binWidthBps, binIndex uint32) (*big.Int, error) {
	num := new(big.Int).SetUint64(uint64(shared.Basis) + uint64(binWidthBps)*uint64(binIndex))
	return MulDiv(shared.Unit, num, big.NewInt(shared.Basis), shared.RoundingDown)
}

func BinRate(initialSupply *big.Int, coefficient, binWidthBps, binIndex uint32) (*big.Int, error) {
	denom := new(big.Int).SetUint64(uint64(shared.Basis) + uint64(binWidthBps)*uint64(binIndex))
	return MulDiv(initialSupply, new(big.Int).SetUint64(uint64(coefficient)), denom, shared.RoundingDown)
}

// BinSpotPrice is the marginal reserve cost of one whole token at a bin,
// Unit-scaled: Unit*Unit / rate.
func BinSpotPrice(initialSupply *big.Int, coefficient, binWidthBps, binIndex uint32) (*big.Int, error) {
	rate, err := BinRate(initialSupply, coefficient, binWidthBps, binIndex)
	if err != nil {
		return nil, err
	}
	if rate.Sign() == 0 {
		return nil, shared.ErrDivisionByZero
	}
	return MulDiv(shared.Unit, shared.Unit, rate, shared.RoundingUp)
}

// PowFrac evaluates (base/Unit)^(expNum/expDen) in Unit fixed point using the
// binomial series around 1. base must satisfy 0 < base < 2*Unit so that
// |base/Unit - 1| < 1 and the series converges; the caller reduces larger
// arguments. The series is truncated after PowMaxTerms or when a term
// underflows to zero, whichever comes first.
func PowFrac(base *big.Int, expNum, expDen int64) (*big.Int, error) {
	if expDen == 0 {
		return nil, shared.ErrDivisionByZero
	}
	if base.Sign() <= 0 || base.Cmp(new(big.Int).Lsh(shared.Unit, 1)) >= 0 {
		return nil, shared.ErrArithmeticOverflow
	}
	x := new(big.Int).Sub(base, shared.Unit) // signed, |x| < Unit

	result := new(big.Int).Set(shared.Unit)
	term := new(big.Int).Set(shared.Unit)
	for k := int64(0); k < shared.PowMaxTerms; k++ {
		// term *= x/Unit * (expNum - k*expDen) / (expDen*(k+1))
		term.Mul(term, x)
		term.Quo(term, shared.Unit)
		term.Mul(term, big.NewInt(expNum-k*expDen))
		term.Quo(term, big.NewInt(expDen*(k+1)))
		if term.Sign() == 0 {
			break
		}
		result.Add(result, term)
	}
	if result.Sign() < 0 {
		return nil, shared.ErrArithmeticOverflow
	}
	return result, nil
}

// ReserveRatioBuy computes tokens issued for netIn reserve against a
// Bancor-style curve:
//
//	tokensOut = supply * ((1 + netIn/reserve)^(ratioBps/Basis) - 1)
//
// netIn is consumed in slices of at most half the running reserve so the
// power series always converges; the reserve grows geometrically per slice,
// bounding the loop logarithmically in netIn/reserve.
func ReserveRatioBuy(supply, reserve *big.Int, ratioBps uint32, netIn *big.Int) (*big.Int, error) {
	if supply.Sign() <= 0 || reserve.Sign() <= 0 {
		return nil, shared.ErrDivisionByZero
	}
	tokensOut := big.NewInt(0)
	curSupply := new(big.Int).Set(supply)
	curReserve := new(big.Int).Set(reserve)
	remaining := new(big.Int).Set(netIn)

	for remaining.Sign() > 0 {
		// slices are capped at half the running reserve so the series
		// argument stays at most 0.5 and truncation error is negligible
		slice := new(big.Int).Set(remaining)
		maxSlice := new(big.Int).Rsh(curReserve, 1)
		if slice.Cmp(maxSlice) > 0 {
			slice.Set(maxSlice)
		}
		if slice.Sign() <= 0 {
			return nil, shared.ErrArithmeticOverflow
		}
		// base = Unit * (reserve + slice) / reserve, in (Unit, 2*Unit)
		base, err := MulDiv(shared.Unit, new(big.Int).Add(curReserve, slice), curReserve, shared.RoundingDown)
		if err != nil {
			return nil, err
		}
		p, err := PowFrac(base, int64(ratioBps), shared.Basis)
		if err != nil {
			return nil, err
		}
		growth, err := Sub(p, shared.Unit)
		if err != nil {
			return nil, err
		}
		minted, err := MulDiv(curSupply, growth, shared.Unit, shared.RoundingDown)
		if err != nil {
			return nil, err
		}
		tokensOut.Add(tokensOut, minted)
		curSupply.Add(curSupply, minted)
		curReserve.Add(curReserve, slice)
		remaining.Sub(remaining, slice)
	}
	if err := CheckAmount(tokensOut); err != nil {
		return nil, err
	}
	return tokensOut, nil
}

// supplySliceBound caps a supply slice so that the power-series exponent
// (Basis/ratioBps) times the relative slice stays at most 1/2:
//
//	slice <= supply * ratioBps / (2*Basis)
func supplySliceBound(supply *big.Int, ratioBps uint32) *big.Int {
	bound := new(big.Int).Mul(supply, new(big.Int).SetUint64(uint64(ratioBps)))
	return bound.Div(bound, big.NewInt(2*shared.Basis))
}

// ReserveRatioCost inverts ReserveRatioBuy: the reserve required to mint
// exactly tokensWanted. Rounds up, against the buyer.
//
//	cost = reserve * ((1 + tokensWanted/supply)^(Basis/ratioBps) - 1)
//
// tokensWanted is consumed in slices smaller than the running supply so the
// power series converges.
func ReserveRatioCost(supply, reserve *big.Int, ratioBps uint32, tokensWanted *big.Int) (*big.Int, error) {
	if supply.Sign() <= 0 || reserve.Sign() <= 0 {
		return nil, shared.ErrDivisionByZero
	}
	cost := big.NewInt(0)
	curSupply := new(big.Int).Set(supply)
	curReserve := new(big.Int).Set(reserve)
	remaining := new(big.Int).Set(tokensWanted)

	for remaining.Sign() > 0 {
		// the exponent here is Basis/ratioBps, so the slice is scaled by the
		// ratio to keep exponent*argument bounded for the series
		slice := new(big.Int).Set(remaining)
		maxSlice := supplySliceBound(curSupply, ratioBps)
		if slice.Cmp(maxSlice) > 0 {
			slice.Set(maxSlice)
		}
		if slice.Sign() <= 0 {
			return nil, shared.ErrArithmeticOverflow
		}
		base, err := MulDiv(shared.Unit, new(big.Int).Add(curSupply, slice), curSupply, shared.RoundingUp)
		if err != nil {
			return nil, err
		}
		p, err := PowFrac(base, shared.Basis, int64(ratioBps))
		if err != nil {
			return nil, err
		}
		growth, err := Sub(p, shared.Unit)
		if err != nil {
			return nil, err
		}
		paid, err := MulDiv(curReserve, growth, shared.Unit, shared.RoundingUp)
		if err != nil {
			return nil, err
		}
		cost.Add(cost, paid)
		curReserve.Add(curReserve, paid)
		curSupply.Add(curSupply, slice)
		remaining.Sub(remaining, slice)
	}
	if err := CheckAmount(cost); err != nil {
		return nil, err
	}
	return cost, nil
}

// ReserveRatioSell is the mirror of ReserveRatioBuy:
//
//	reserveOut = reserve * (1 - (1 - tokensIn/supply)^(Basis/ratioBps))
//
// tokensIn must be strictly less than supply (virtual supply keeps the
// remainder positive for live assets).
func ReserveRatioSell(supply, reserve *big.Int, ratioBps uint32, tokensIn *big.Int) (*big.Int, error) {
	if supply.Sign() <= 0 || reserve.Sign() <= 0 {
		return nil, shared.ErrDivisionByZero
	}
	if tokensIn.Cmp(supply) >= 0 {
		return nil, shared.ErrInsufficientLiquidity
	}
	reserveOut := big.NewInt(0)
	curSupply := new(big.Int).Set(supply)
	curReserve := new(big.Int).Set(reserve)
	remaining := new(big.Int).Set(tokensIn)

	for remaining.Sign() > 0 {
		slice := new(big.Int).Set(remaining)
		maxSlice := supplySliceBound(curSupply, ratioBps)
		if slice.Cmp(maxSlice) > 0 {
			slice.Set(maxSlice)
		}
		if slice.Sign() <= 0 {
			return nil, shared.ErrArithmeticOverflow
		}
		// base = Unit * (supply - slice) / supply, in (Unit/2, Unit]
		base, err := MulDiv(shared.Unit, new(big.Int).Sub(curSupply, slice), curSupply, shared.RoundingUp)
		if err != nil {
			return nil, err
		}
		p, err := PowFrac(base, shared.Basis, int64(ratioBps))
		if err != nil {
			return nil, err
		}
		if p.Cmp(shared.Unit) > 0 {
			p = new(big.Int).Set(shared.Unit)
		}
		shrink, err := Sub(shared.Unit, p)
		if err != nil {
			return nil, err
		}
		paid, err := MulDiv(curReserve, shrink, shared.Unit, shared.RoundingDown)
		if err != nil {
			return nil, err
		}
		reserveOut.Add(reserveOut, paid)
		curReserve.Sub(curReserve, paid)
		curSupply.Sub(curSupply, slice)
		remaining.Sub(remaining, slice)
	}
	return reserveOut, nil
}
