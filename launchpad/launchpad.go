// Package launchpad is the issuance controller: it accepts create, buy and
// sell commands, serializes trades per asset, applies quotes from the
// pricing engine, emits trade events in application order, and migrates an
// asset's liquidity into an external pool when its curve is fully
// subscribed.
package launchpad

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// LiquidityPool is the external pool the migrator deposits into at
// graduation. Deposit must be idempotent per assetID: re-invoking with the
// same amounts after a partial failure is safe.
type LiquidityPool interface {
	Deposit(ctx context.Context, assetID uuid.UUID, reserveAmount, tokenAmount *big.Int) error
}

// EventSink receives one TradeEvent per applied trade, in application
// order per asset, and one LaunchEvent per graduation.
type EventSink interface {
	Trade(ctx context.Context, ev TradeEvent) error
	Launch(ctx context.Context, ev LaunchEvent) error
}

type nopSink struct{}

func (nopSink) Trade(context.Context, TradeEvent) error { return nil }
func (nopSink) Launch(context.Context, LaunchEvent) error { return nil }

// migrationPlan is computed once at graduation and replayed unchanged on
// every deposit retry.
type migrationPlan struct {
	reserve *big.Int
	supply  *big.Int
}

type assetEntry struct {
	mu     sync.Mutex
	ledger *bondingcurve.AssetLedger
	curve  *bondingcurve.CurveTable
	seq    uint64

	pending  *migrationPlan
	migrated bool
}

// Factory is the issuance controller. Trades against one asset are
// serialized on that asset's lock; different assets trade in parallel.
type Factory struct {
	cfg      Config
	log      *zap.Logger
	registry *bondingcurve.Registry
	pool     LiquidityPool
	sink     EventSink
	now      func() time.Time

	mu     sync.RWMutex
	assets map[uuid.UUID]*assetEntry
}

func New(cfg Config, registry *bondingcurve.Registry, pool LiquidityPool, sink EventSink, log *zap.Logger) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil || pool == nil {
		return nil, shared.ErrInvalidCurveParameters
	}
	if sink == nil {
		sink = nopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{
		cfg:      cfg,
		log:      log,
		registry: registry,
		pool:     pool,
		sink:     sink,
		now:      time.Now,
		assets:   make(map[uuid.UUID]*assetEntry),
	}, nil
}

// Registry exposes the curve registry for administrative commands.
func (f *Factory) Registry() *bondingcurve.Registry { return f.registry }

func (f *Factory) entry(assetID uuid.UUID) (*assetEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.assets[assetID]
	if !ok {
		return nil, shared.ErrUnknownAsset
	}
	return e, nil
}

// Asset returns a deep snapshot of the asset's ledger.
func (f *Factory) Asset(assetID uuid.UUID) (*bondingcurve.AssetLedger, error) {
	e, err := f.entry(assetID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Clone(), nil
}

// CurrentPrice returns the marginal price at the asset's current position.
func (f *Factory) CurrentPrice(assetID uuid.UUID) (*big.Int, error) {
	e, err := f.entry(assetID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return bondingcurve.CurrentPrice(e.ledger, e.curve)
}
