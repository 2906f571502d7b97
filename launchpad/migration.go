package launchpad

import (
	"context"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/math"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// graduate runs under the asset's lock when the curve is fully subscribed.
// The Launched flip and the migration plan commit first; the external
// deposit may fail and be retried against the same plan.
func (f *Factory) graduate(ctx context.Context, e *assetEntry) error {
	e.ledger.State = shared.AssetStateLaunched

	plan, err := f.migrationAmounts(e)
	if err != nil {
		// plan computation is pure arithmetic over committed state; treat a
		// failure like a failed deposit and leave it retryable
		e.pending = &migrationPlan{reserve: big.NewInt(0), supply: big.NewInt(0)}
		return fmt.Errorf("%w: %v", shared.ErrExternalMigrationFailed, err)
	}
	e.pending = plan

	f.log.Info("asset graduated",
		zap.String("asset_id", e.ledger.AssetID.String()),
		zap.String("reserve_migrated", plan.reserve.String()),
		zap.String("supply_migrated", plan.supply.String()),
	)
	return f.deposit(ctx, e)
}

// migrationAmounts computes the migrated reserve and supply from the
// graduated ledger: PercentOfLiquidityBps of the reserve, floored at the
// curve's ReserveAtLaunch if one is set, plus any un-circulated supply the
// curve reserved for the pool.
func (f *Factory) migrationAmounts(e *assetEntry) (*migrationPlan, error) {
	reserve, err := math.MulDiv(
		e.ledger.ReserveBalance,
		new(big.Int).SetUint64(uint64(e.curve.Params.PercentOfLiquidityBps)),
		big.NewInt(shared.Basis),
		shared.RoundingDown,
	)
	if err != nil {
		return nil, err
	}
	if floor := e.curve.Params.ReserveAtLaunch; floor != nil && reserve.Cmp(floor) < 0 {
		reserve = new(big.Int).Set(floor)
		if reserve.Cmp(e.ledger.ReserveBalance) > 0 {
			reserve.Set(e.ledger.ReserveBalance)
		}
	}
	supply := new(big.Int).Sub(e.ledger.InitialSupply, e.ledger.CirculatingSupply)
	return &migrationPlan{reserve: reserve, supply: supply}, nil
}

// deposit performs the external pool deposit for a pending migration. Must
// be called with the entry lock held. Idempotent: the plan never changes
// between attempts, and the pool dedupes on assetID.
func (f *Factory) deposit(ctx context.Context, e *assetEntry) error {
	if err := f.pool.Deposit(ctx, e.ledger.AssetID, e.pending.reserve, e.pending.supply); err != nil {
		f.log.Warn("pool deposit failed",
			zap.String("asset_id", e.ledger.AssetID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", shared.ErrExternalMigrationFailed, err)
	}

	ev := LaunchEvent{
		AssetID:              e.ledger.AssetID,
		Timestamp:            f.now(),
		FinalReserveMigrated: e.pending.reserve,
		FinalSupplyMigrated:  e.pending.supply,
	}
	e.migrated = true
	e.pending = nil
	if err := f.sink.Launch(ctx, ev); err != nil {
		f.log.Error("launch event sink failed",
			zap.String("asset_id", ev.AssetID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("emit launch event: %w", err)
	}
	return nil
}

// RetryMigration re-attempts the external deposit for a graduated asset
// whose migration is still pending. Safe to call repeatedly.
func (f *Factory) RetryMigration(ctx context.Context, assetID uuid.UUID) error {
	e, err := f.entry(assetID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.migrated || e.pending == nil {
		return shared.ErrMigrationNotPending
	}
	return f.deposit(ctx, e)
}
