// Package cp_amm is an in-process constant-product pool. It is the default
// graduation target for the launchpad: migrated reserve and supply seed a
// pool per asset, and post-graduation trading runs x*y=k instead of the
// issuance curve.
package cp_amm

import (
	"context"
	"math/big"
	"sync"

	"github.com/google/uuid"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/math"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// Pool holds one asset's reserves. X is the reserve currency side, Y the
// asset token side.
type Pool struct {
	AssetID  uuid.UUID
	ReserveX *big.Int
	ReserveY *big.Int
}

// AMM manages one pool per graduated asset.
type AMM struct {
	feeBps uint32

	mu    sync.RWMutex
	pools map[uuid.UUID]*Pool
}

func New(feeBps uint32) (*AMM, error) {
	if feeBps > shared.MaxTradingFeeBps {
		return nil, shared.ErrInvalidCurveParameters
	}
	return &AMM{feeBps: feeBps, pools: make(map[uuid.UUID]*Pool)}, nil
}

// Deposit seeds the asset's pool with migrated liquidity. Idempotent per
// assetID: a repeated deposit for an existing pool is a no-op, so migration
// retries after a partial failure are safe.
func (a *AMM) Deposit(ctx context.Context, assetID uuid.UUID, reserveAmount, tokenAmount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if reserveAmount.Sign() < 0 || tokenAmount.Sign() < 0 {
		return shared.ErrZeroAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.pools[assetID]; ok {
		return nil
	}
	a.pools[assetID] = &Pool{
		AssetID:  assetID,
		ReserveX: new(big.Int).Set(reserveAmount),
		ReserveY: new(big.Int).Set(tokenAmount),
	}
	return nil
}

// Pool returns a snapshot of the asset's pool.
func (a *AMM) Pool(assetID uuid.UUID) (Pool, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.pools[assetID]
	if !ok {
		return Pool{}, false
	}
	return Pool{
		AssetID:  p.AssetID,
		ReserveX: new(big.Int).Set(p.ReserveX),
		ReserveY: new(big.Int).Set(p.ReserveY),
	}, true
}

// getAmountOut is the constant-product output for amountIn against
// (reserveIn, reserveOut) after the pool fee:
//
//	out = reserveOut * netIn / (reserveIn + netIn)
func (a *AMM) getAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn.Sign() <= 0 {
		return nil, shared.ErrZeroAmount
	}
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, shared.ErrInsufficientLiquidity
	}
	netIn, err := math.MulDiv(amountIn, big.NewInt(shared.Basis-int64(a.feeBps)), big.NewInt(shared.Basis), shared.RoundingDown)
	if err != nil {
		return nil, err
	}
	denom := new(big.Int).Add(reserveIn, netIn)
	return math.MulDiv(reserveOut, netIn, denom, shared.RoundingDown)
}

// SwapQuote prices a swap without applying it. xToY trades reserve currency
// for tokens.
func (a *AMM) SwapQuote(assetID uuid.UUID, amountIn *big.Int, xToY bool) (*big.Int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.pools[assetID]
	if !ok {
		return nil, shared.ErrUnknownAsset
	}
	if xToY {
		return a.getAmountOut(amountIn, p.ReserveX, p.ReserveY)
	}
	return a.getAmountOut(amountIn, p.ReserveY, p.ReserveX)
}

// Swap applies a swap against the asset's pool, honoring minAmountOut.
func (a *AMM) Swap(ctx context.Context, assetID uuid.UUID, amountIn, minAmountOut *big.Int, xToY bool) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pools[assetID]
	if !ok {
		return nil, shared.ErrUnknownAsset
	}
	var out *big.Int
	var err error
	if xToY {
		out, err = a.getAmountOut(amountIn, p.ReserveX, p.ReserveY)
	} else {
		out, err = a.getAmountOut(amountIn, p.ReserveY, p.ReserveX)
	}
	if err != nil {
		return nil, err
	}
	if minAmountOut != nil && out.Cmp(minAmountOut) < 0 {
		return nil, shared.ErrSlippageExceeded
	}
	if xToY {
		p.ReserveX.Add(p.ReserveX, amountIn)
		p.ReserveY.Sub(p.ReserveY, out)
	} else {
		p.ReserveY.Add(p.ReserveY, amountIn)
		p.ReserveX.Sub(p.ReserveX, out)
	}
	return out, nil
}
