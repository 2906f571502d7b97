package launchpad

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// TradeResult is the success payload of Buy and Sell: the applied quote,
// the emitted event, and a snapshot of the ledger after application.
type TradeResult struct {
	Quote  *bondingcurve.TradeQuote
	Event  TradeEvent
	Ledger *bondingcurve.AssetLedger

	// Launched is true when this trade graduated the asset.
	Launched bool
	// MigrationPending is true when graduation occurred but the external
	// pool deposit failed; RetryMigration completes it.
	MigrationPending bool
}

// Buy trades reserveIn against the asset's curve. minTokensOut is the
// caller's slippage bound (nil for none). Graduation is evaluated whenever
// the applied buy fully subscribes the curve, even if the event sink failed;
// the migration runs synchronously, and if only the external deposit fails,
// the trade and the Launched flip stand, with ExternalMigrationFailed
// returned alongside a non-nil result.
func (f *Factory) Buy(ctx context.Context, assetID uuid.UUID, reserveIn, minTokensOut *big.Int) (*TradeResult, error) {
	e, err := f.entry(assetID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	q, err := bondingcurve.QuoteBuy(e.ledger, e.curve, f.cfg.TradingFeeBps, reserveIn, minTokensOut)
	if err != nil {
		return nil, err
	}
	applyQuote(e.ledger, q)

	res := &TradeResult{Quote: q}
	tradeErr := f.emitTrade(ctx, e, q, &res.Event)

	if e.ledger.CirculatingSupply.Cmp(e.ledger.InitialSupply) == 0 {
		res.Launched = true
		if gradErr := f.graduate(ctx, e); gradErr != nil {
			res.MigrationPending = true
			tradeErr = errors.Join(tradeErr, gradErr)
		}
	}
	res.Ledger = e.ledger.Clone()
	return res, tradeErr
}

// Sell trades tokensIn back into the curve. A sell can never graduate an
// asset.
func (f *Factory) Sell(ctx context.Context, assetID uuid.UUID, tokensIn, minReserveOut *big.Int) (*TradeResult, error) {
	e, err := f.entry(assetID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	q, err := bondingcurve.QuoteSell(e.ledger, e.curve, f.cfg.TradingFeeBps, tokensIn, minReserveOut)
	if err != nil {
		return nil, err
	}
	applyQuote(e.ledger, q)

	res := &TradeResult{Quote: q}
	if err := f.emitTrade(ctx, e, q, &res.Event); err != nil {
		res.Ledger = e.ledger.Clone()
		return res, err
	}
	res.Ledger = e.ledger.Clone()
	return res, nil
}

// applyQuote commits a quote's resulting state. Cannot fail; every
// validation happened inside the quote computation.
func applyQuote(l *bondingcurve.AssetLedger, q *bondingcurve.TradeQuote) {
	l.CurrentBinIndex = q.ResultingBinIndex
	l.CurrentBinRemaining.Set(q.ResultingBinRemaining)
	l.ReserveBalance.Set(q.ResultingReserve)
	l.CirculatingSupply.Set(q.ResultingSupply)
	l.FeesAccrued.Add(l.FeesAccrued, q.FeeAmount)
}

// emitTrade commits the trade record to the sink before the per-asset lock
// is released, so records for one asset can never be observed out of
// application order. A sink failure surfaces to the caller; the applied
// trade stands.
func (f *Factory) emitTrade(ctx context.Context, e *assetEntry, q *bondingcurve.TradeQuote, out *TradeEvent) error {
	e.seq++
	ev := TradeEvent{
		EventID:           uuid.New(),
		AssetID:           e.ledger.AssetID,
		Sequence:          e.seq,
		Timestamp:         f.now(),
		Direction:         q.Direction,
		FeeAmount:         q.FeeAmount,
		ResultingPrice:    q.ResultingPrice,
		ResultingBinIndex: q.ResultingBinIndex,
	}
	if q.Direction == shared.TradeDirectionBuy {
		ev.ReserveAmount = new(big.Int).Sub(q.AmountIn, q.AmountRefused)
		ev.TokenAmount = q.AmountOut
	} else {
		ev.ReserveAmount = q.AmountOut
		ev.TokenAmount = q.AmountIn
	}
	*out = ev

	if err := f.sink.Trade(ctx, ev); err != nil {
		f.log.Error("trade event sink failed",
			zap.String("asset_id", ev.AssetID.String()),
			zap.Uint64("sequence", ev.Sequence),
			zap.Error(err),
		)
		return fmt.Errorf("emit trade event: %w", err)
	}
	f.log.Debug("trade applied",
		zap.String("asset_id", ev.AssetID.String()),
		zap.Uint64("sequence", ev.Sequence),
		zap.String("direction", ev.Direction.String()),
		zap.String("reserve_amount", ev.ReserveAmount.String()),
		zap.String("token_amount", ev.TokenAmount.String()),
	)
	return nil
}
