package launchpad

import (
	"context"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

type CreateResult struct {
	AssetID uuid.UUID
	Ledger  *bondingcurve.AssetLedger

	// InitialBuy is set when the creation fee overpaid and the excess was
	// applied as the creator's first buy.
	InitialBuy *TradeResult
}

// CreateAsset allocates a fresh Active ledger at bin 0 referencing a
// registered curve. creationFeePaid must cover the configured creation fee;
// any excess is routed through the normal buy path on the new asset with no
// slippage bound. Creation rolls back only when that buy is rejected before
// applying; once the buy has committed, sink or migration failures surface
// alongside the created asset so the caller can retry against it.
func (f *Factory) CreateAsset(ctx context.Context, creator string, curveID uint32, initialSupply, creationFeePaid *big.Int) (*CreateResult, error) {
	paid := creationFeePaid
	if paid == nil {
		paid = big.NewInt(0)
	}
	if paid.Cmp(f.cfg.creationFee()) < 0 {
		return nil, shared.ErrInsufficientCreationFee
	}

	curve, err := f.registry.Get(curveID)
	if err != nil {
		return nil, err
	}
	assetID := uuid.New()
	ledger, err := bondingcurve.NewAssetLedger(assetID, curve, creator, initialSupply)
	if err != nil {
		return nil, err
	}
	if err := f.registry.Retain(curveID); err != nil {
		return nil, err
	}

	e := &assetEntry{ledger: ledger, curve: curve}
	f.mu.Lock()
	f.assets[assetID] = e
	f.mu.Unlock()

	res := &CreateResult{AssetID: assetID}

	excess := new(big.Int).Sub(paid, f.cfg.creationFee())
	if excess.Sign() > 0 {
		buy, err := f.Buy(ctx, assetID, excess, nil)
		if buy == nil && err != nil {
			// the quote was rejected before anything mutated
			f.mu.Lock()
			delete(f.assets, assetID)
			f.mu.Unlock()
			f.registry.Release(curveID)
			return nil, err
		}
		res.InitialBuy = buy
		if err != nil {
			e.mu.Lock()
			res.Ledger = e.ledger.Clone()
			e.mu.Unlock()
			return res, err
		}
	}

	e.mu.Lock()
	res.Ledger = e.ledger.Clone()
	e.mu.Unlock()

	f.log.Info("asset created",
		zap.String("asset_id", assetID.String()),
		zap.Uint32("curve_id", curveID),
		zap.String("creator", creator),
		zap.String("initial_supply", initialSupply.String()),
	)
	return res, nil
}
