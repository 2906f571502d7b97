package math

import (
	"math/big"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// BinCurve is the immutable bin-schedule view the walkers price against.
// Distribution is nil for a uniform schedule; otherwise it holds one
// basis-point weight per bin and sums to Basis.
type BinCurve struct {
	BinWidthBps  uint32
	BinCount     uint32
	Coefficient  uint32
	Distribution []uint32
}

// Capacity returns the token capacity of one bin. Uniform schedules split
// initialSupply evenly; weighted schedules take their basis-point share.
// The final bin absorbs the division remainder so capacities always sum to
// exactly initialSupply.
func (c BinCurve) Capacity(initialSupply *big.Int, binIndex uint32) (*big.Int, error) {
	if binIndex >= c.BinCount {
		return nil, shared.ErrInvalidCurveParameters
	}
	if c.Distribution == nil {
		base, err := Div(initialSupply, new(big.Int).SetUint64(uint64(c.BinCount)))
		if err != nil {
			return nil, err
		}
		if binIndex < c.BinCount-1 {
			return base, nil
		}
		used := new(big.Int).Mul(base, new(big.Int).SetUint64(uint64(c.BinCount-1)))
		return new(big.Int).Sub(initialSupply, used), nil
	}
	if binIndex < c.BinCount-1 {
		return MulDiv(initialSupply, new(big.Int).SetUint64(uint64(c.Distribution[binIndex])), big.NewInt(shared.Basis), shared.RoundingDown)
	}
	used := big.NewInt(0)
	for i := uint32(0); i < c.BinCount-1; i++ {
		cap, err := MulDiv(initialSupply, new(big.Int).SetUint64(uint64(c.Distribution[i])), big.NewInt(shared.Basis), shared.RoundingDown)
		if err != nil {
			return nil, err
		}
		used.Add(used, cap)
	}
	return new(big.Int).Sub(initialSupply, used), nil
}

func (c BinCurve) rate(initialSupply *big.Int, binIndex uint32) (*big.Int, error) {
	return BinRate(initialSupply, c.Coefficient, c.BinWidthBps, binIndex)
}

// SwapAmount is the outcome of a bin walk. AmountLeft is reserve the curve
// refused because every bin was consumed; the engine never mints past
// initialSupply.
type SwapAmount struct {
	TokensOut        *big.Int
	ReserveOut       *big.Int
	AmountLeft       *big.Int
	NextBinIndex     uint32
	NextBinRemaining *big.Int
}

// BinBuy walks bins upward from (binIndex, binRemaining), converting netIn
// reserve into tokens at each bin's rate. Token outputs round down and the
// reserve charged for a full bin rounds up, biasing rounding toward the
// protocol. The walk is bounded by BinCount.
func BinBuy(c BinCurve, initialSupply *big.Int, binIndex uint32, binRemaining, netIn *big.Int) (SwapAmount, error) {
	idx := binIndex
	rem := new(big.Int).Set(binRemaining)
	remainingIn := new(big.Int).Set(netIn)
	out := big.NewInt(0)
	left := big.NewInt(0)

	for remainingIn.Sign() > 0 {
		if rem.Sign() == 0 {
			if idx+1 >= c.BinCount {
				left.Set(remainingIn)
				break
			}
			idx++
			capNext, err := c.Capacity(initialSupply, idx)
			if err != nil {
				return SwapAmount{}, err
			}
			rem.Set(capNext)
		}
		rate, err := c.rate(initialSupply, idx)
		if err != nil {
			return SwapAmount{}, err
		}
		tokens, err := MulDiv(remainingIn, rate, shared.Unit, shared.RoundingDown)
		if err != nil {
			return SwapAmount{}, err
		}
		if tokens.Cmp(rem) <= 0 {
			out.Add(out, tokens)
			rem.Sub(rem, tokens)
			remainingIn.SetInt64(0)
			break
		}
		// the trade spans past this bin: take the remainder at this rate
		cost, err := MulDiv(rem, shared.Unit, rate, shared.RoundingUp)
		if err != nil {
			return SwapAmount{}, err
		}
		if cost.Cmp(remainingIn) > 0 {
			cost.Set(remainingIn)
		}
		out.Add(out, rem)
		remainingIn.Sub(remainingIn, cost)
		rem.SetInt64(0)
	}

	// landing exactly on a boundary advances the cursor to the next bin
	if rem.Sign() == 0 && left.Sign() == 0 && idx+1 < c.BinCount {
		idx++
		capNext, err := c.Capacity(initialSupply, idx)
		if err != nil {
			return SwapAmount{}, err
		}
		rem = capNext
	}
	return SwapAmount{TokensOut: out, ReserveOut: big.NewInt(0), AmountLeft: left, NextBinIndex: idx, NextBinRemaining: rem}, nil
}

// BinSell walks bins downward from (binIndex, binRemaining), returning
// reserve for tokensIn at each vacated bin's rate. Reserve outputs round
// down. tokensIn must not exceed the circulating amount implied by the
// cursor; running out of vacated bins at index 0 is InsufficientLiquidity.
func BinSell(c BinCurve, initialSupply *big.Int, binIndex uint32, binRemaining, tokensIn *big.Int) (SwapAmount, error) {
	idx := binIndex
	rem := new(big.Int).Set(binRemaining)
	remainingTokens := new(big.Int).Set(tokensIn)
	out := big.NewInt(0)

	for remainingTokens.Sign() > 0 {
		capHere, err := c.Capacity(initialSupply, idx)
		if err != nil {
			return SwapAmount{}, err
		}
		sold := new(big.Int).Sub(capHere, rem)
		if sold.Sign() > 0 {
			portion := new(big.Int).Set(remainingTokens)
			if portion.Cmp(sold) > 0 {
				portion.Set(sold)
			}
			rate, err := c.rate(initialSupply, idx)
			if err != nil {
				return SwapAmount{}, err
			}
			refund, err := MulDiv(portion, shared.Unit, rate, shared.RoundingDown)
			if err != nil {
				return SwapAmount{}, err
			}
			out.Add(out, refund)
			rem.Add(rem, portion)
			remainingTokens.Sub(remainingTokens, portion)
		}
		if remainingTokens.Sign() == 0 {
			break
		}
		if idx == 0 {
			return SwapAmount{}, shared.ErrInsufficientLiquidity
		}
		idx--
		rem.SetInt64(0)
	}
	return SwapAmount{TokensOut: big.NewInt(0), ReserveOut: out, AmountLeft: big.NewInt(0), NextBinIndex: idx, NextBinRemaining: rem}, nil
}
