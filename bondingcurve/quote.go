package bondingcurve

import (
	"math/big"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/math"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// TradeQuote is the outcome of a pure quote computation. The Resulting*
// fields describe the ledger after application; the caller applies them
// atomically or discards the quote. Never persisted.
type TradeQuote struct {
	Direction shared.TradeDirection

	// AmountIn is the gross input, AmountOut the net output after fees.
	// AmountRefused is reserve handed back because the curve was exhausted
	// mid-trade; the engine never mints past the initial supply.
	AmountIn      *big.Int
	AmountOut     *big.Int
	FeeAmount     *big.Int
	AmountRefused *big.Int

	ResultingBinIndex     uint32
	ResultingBinRemaining *big.Int
	ResultingReserve      *big.Int
	ResultingSupply       *big.Int
	ResultingPrice        *big.Int
}

// QuoteBuy prices reserveIn against the curve from the ledger's current
// position. Pure: the ledger is read, never written. Fails before any state
// could change; a non-nil error means the caller's ledger is untouched.
func QuoteBuy(ledger *AssetLedger, curve *CurveTable, feeBps uint32, reserveIn, minTokensOut *big.Int) (*TradeQuote, error) {
	if ledger.State != shared.AssetStateActive {
		return nil, shared.ErrAssetAlreadyLaunched
	}
	if reserveIn == nil || reserveIn.Sign() <= 0 {
		return nil, shared.ErrZeroAmount
	}
	if err := math.CheckAmount(reserveIn); err != nil {
		return nil, err
	}
	fee, net, err := math.FeeOnAmount(reserveIn, feeBps)
	if err != nil {
		return nil, err
	}

	q := &TradeQuote{
		Direction:     shared.TradeDirectionBuy,
		AmountIn:      new(big.Int).Set(reserveIn),
		FeeAmount:     fee,
		AmountRefused: big.NewInt(0),
	}

	switch curve.Params.Kind {
	case shared.CurveKindBinSchedule:
		sw, err := math.BinBuy(curve.BinCurve(), ledger.InitialSupply, ledger.CurrentBinIndex, ledger.CurrentBinRemaining, net)
		if err != nil {
			return nil, err
		}
		q.AmountOut = sw.TokensOut
		q.AmountRefused = sw.AmountLeft
		q.ResultingBinIndex = sw.NextBinIndex
		q.ResultingBinRemaining = sw.NextBinRemaining
	case shared.CurveKindReserveRatio:
		supplyAll := new(big.Int).Add(curve.Params.VirtualSupply, ledger.CirculatingSupply)
		reserveAll := new(big.Int).Add(curve.Params.VirtualReserve, ledger.ReserveBalance)
		available := new(big.Int).Sub(ledger.InitialSupply, ledger.CirculatingSupply)
		tokensOut, err := math.ReserveRatioBuy(supplyAll, reserveAll, curve.Params.RatioBps, net)
		if err != nil {
			return nil, err
		}
		if tokensOut.Cmp(available) > 0 {
			cost, err := math.ReserveRatioCost(supplyAll, reserveAll, curve.Params.RatioBps, available)
			if err != nil {
				return nil, err
			}
			if cost.Cmp(net) > 0 {
				cost.Set(net)
			}
			q.AmountRefused = new(big.Int).Sub(net, cost)
			tokensOut = new(big.Int).Set(available)
		}
		q.AmountOut = tokensOut
		q.ResultingBinIndex = 0
		q.ResultingBinRemaining = new(big.Int).Sub(available, tokensOut)
	default:
		return nil, shared.ErrInvalidCurveParameters
	}

	if minTokensOut != nil && q.AmountOut.Cmp(minTokensOut) < 0 {
		return nil, shared.ErrSlippageExceeded
	}

	netApplied := new(big.Int).Sub(net, q.AmountRefused)
	q.ResultingReserve, err = math.Add(ledger.ReserveBalance, netApplied)
	if err != nil {
		return nil, err
	}
	q.ResultingSupply, err = math.Add(ledger.CirculatingSupply, q.AmountOut)
	if err != nil {
		return nil, err
	}
	if q.ResultingSupply.Cmp(ledger.InitialSupply) > 0 {
		return nil, shared.ErrArithmeticOverflow
	}
	q.ResultingPrice, err = resultingPrice(curve, ledger.InitialSupply, q)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// QuoteSell is the mirror of QuoteBuy: walks the curve downward, applies the
// fee to the output reserve, and leaves the ledger untouched on failure.
func QuoteSell(ledger *AssetLedger, curve *CurveTable, feeBps uint32, tokensIn, minReserveOut *big.Int) (*TradeQuote, error) {
	if ledger.State != shared.AssetStateActive {
		return nil, shared.ErrAssetAlreadyLaunched
	}
	if tokensIn == nil || tokensIn.Sign() <= 0 {
		return nil, shared.ErrZeroAmount
	}
	if err := math.CheckAmount(tokensIn); err != nil {
		return nil, err
	}
	if tokensIn.Cmp(ledger.CirculatingSupply) > 0 {
		return nil, shared.ErrInsufficientLiquidity
	}

	q := &TradeQuote{
		Direction:     shared.TradeDirectionSell,
		AmountIn:      new(big.Int).Set(tokensIn),
		AmountRefused: big.NewInt(0),
	}

	var gross *big.Int
	switch curve.Params.Kind {
	case shared.CurveKindBinSchedule:
		sw, err := math.BinSell(curve.BinCurve(), ledger.InitialSupply, ledger.CurrentBinIndex, ledger.CurrentBinRemaining, tokensIn)
		if err != nil {
			return nil, err
		}
		gross = sw.ReserveOut
		q.ResultingBinIndex = sw.NextBinIndex
		q.ResultingBinRemaining = sw.NextBinRemaining
	case shared.CurveKindReserveRatio:
		supplyAll := new(big.Int).Add(curve.Params.VirtualSupply, ledger.CirculatingSupply)
		reserveAll := new(big.Int).Add(curve.Params.VirtualReserve, ledger.ReserveBalance)
		out, err := math.ReserveRatioSell(supplyAll, reserveAll, curve.Params.RatioBps, tokensIn)
		if err != nil {
			return nil, err
		}
		gross = out
		q.ResultingBinIndex = 0
		remaining := new(big.Int).Sub(ledger.InitialSupply, ledger.CirculatingSupply)
		q.ResultingBinRemaining = remaining.Add(remaining, tokensIn)
	default:
		return nil, shared.ErrInvalidCurveParameters
	}

	// the curve can never pay out more than it holds
	if gross.Cmp(ledger.ReserveBalance) > 0 {
		gross = new(big.Int).Set(ledger.ReserveBalance)
	}
	fee, payout, err := math.FeeOnAmount(gross, feeBps)
	if err != nil {
		return nil, err
	}
	q.FeeAmount = fee
	q.AmountOut = payout

	if minReserveOut != nil && payout.Cmp(minReserveOut) < 0 {
		return nil, shared.ErrSlippageExceeded
	}

	q.ResultingReserve, err = math.Sub(ledger.ReserveBalance, payout)
	if err != nil {
		return nil, err
	}
	q.ResultingSupply, err = math.Sub(ledger.CirculatingSupply, tokensIn)
	if err != nil {
		return nil, err
	}
	q.ResultingPrice, err = resultingPrice(curve, ledger.InitialSupply, q)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// CurrentPrice is the marginal price at the ledger's current position,
// Unit-scaled reserve per token.
func CurrentPrice(ledger *AssetLedger, curve *CurveTable) (*big.Int, error) {
	q := &TradeQuote{
		ResultingBinIndex: ledger.CurrentBinIndex,
		ResultingReserve:  ledger.ReserveBalance,
		ResultingSupply:   ledger.CirculatingSupply,
	}
	return resultingPrice(curve, ledger.InitialSupply, q)
}

// resultingPrice is the marginal price at the quote's resulting position,
// Unit-scaled reserve per token.
func resultingPrice(curve *CurveTable, initialSupply *big.Int, q *TradeQuote) (*big.Int, error) {
	switch curve.Params.Kind {
	case shared.CurveKindBinSchedule:
		return math.BinSpotPrice(initialSupply, curve.Params.Coefficient, curve.Params.BinWidthBps, q.ResultingBinIndex)
	case shared.CurveKindReserveRatio:
		supplyAll := new(big.Int).Add(curve.Params.VirtualSupply, q.ResultingSupply)
		reserveAll := new(big.Int).Add(curve.Params.VirtualReserve, q.ResultingReserve)
		weighted, err := math.MulDiv(supplyAll, new(big.Int).SetUint64(uint64(curve.Params.RatioBps)), big.NewInt(shared.Basis), shared.RoundingDown)
		if err != nil {
			return nil, err
		}
		if weighted.Sign() == 0 {
			return nil, shared.ErrDivisionByZero
		}
		return math.MulDiv(reserveAll, shared.Unit, weighted, shared.RoundingUp)
	default:
		return nil, shared.ErrInvalidCurveParameters
	}
}
