package launchpad

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

func unitsOf(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), shared.Unit)
}

type poolDeposit struct {
	assetID uuid.UUID
	reserve *big.Int
	token   *big.Int
}

// recordingPool captures deposits; failWith makes Deposit fail until cleared.
type recordingPool struct {
	mu       sync.Mutex
	deposits []poolDeposit
	failWith error
}

func (p *recordingPool) Deposit(_ context.Context, assetID uuid.UUID, reserve, token *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.deposits = append(p.deposits, poolDeposit{assetID: assetID, reserve: new(big.Int).Set(reserve), token: new(big.Int).Set(token)})
	return nil
}

func (p *recordingPool) setFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

type recordingSink struct {
	mu        sync.Mutex
	trades    []TradeEvent
	launches  []LaunchEvent
	failTrade error
}

func (s *recordingSink) Trade(_ context.Context, ev TradeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTrade != nil {
		return s.failTrade
	}
	s.trades = append(s.trades, ev)
	return nil
}

func (s *recordingSink) Launch(_ context.Context, ev LaunchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launches = append(s.launches, ev)
	return nil
}

func registerTestCurve(t *testing.T, r *bondingcurve.Registry) uint32 {
	t.Helper()
	id, err := r.Register(bondingcurve.CurveParams{
		Kind:                  shared.CurveKindBinSchedule,
		BinWidthBps:           2000,
		BinCount:              5,
		Coefficient:           2,
		PercentOfLiquidityBps: 8000,
	})
	require.NoError(t, err)
	return id
}

func newTestFactory(t *testing.T, cfg Config) (*Factory, uint32, *recordingPool, *recordingSink) {
	t.Helper()
	registry := bondingcurve.NewRegistry()
	curveID := registerTestCurve(t, registry)
	pool := &recordingPool{}
	sink := &recordingSink{}
	f, err := New(cfg, registry, pool, sink, nil)
	require.NoError(t, err)
	return f, curveID, pool, sink
}

func TestNewRejectsBadConfig(t *testing.T) {
	registry := bondingcurve.NewRegistry()
	_, err := New(Config{TradingFeeBps: shared.MaxTradingFeeBps + 1}, registry, &recordingPool{}, nil, nil)
	require.ErrorIs(t, err, shared.ErrInvalidCurveParameters)

	_, err = New(Config{}, nil, &recordingPool{}, nil, nil)
	require.ErrorIs(t, err, shared.ErrInvalidCurveParameters)
	_, err = New(Config{}, registry, nil, nil, nil)
	require.ErrorIs(t, err, shared.ErrInvalidCurveParameters)
}

func TestCreateAssetRequiresCreationFee(t *testing.T) {
	f, curveID, _, _ := newTestFactory(t, Config{TradingFeeBps: 100, CreationFee: unitsOf(1)})

	_, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), nil)
	require.ErrorIs(t, err, shared.ErrInsufficientCreationFee)

	res, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), unitsOf(1))
	require.NoError(t, err)
	require.Nil(t, res.InitialBuy)
	require.Zero(t, res.Ledger.CirculatingSupply.Sign())
}

func TestCreateAssetUnknownCurve(t *testing.T) {
	f, _, _, _ := newTestFactory(t, Config{TradingFeeBps: 100})
	_, err := f.CreateAsset(context.Background(), "alice", 99, unitsOf(1_000_000), nil)
	require.ErrorIs(t, err, shared.ErrUnknownCurve)
}

func TestCreateAssetExcessBecomesInitialBuy(t *testing.T) {
	f, curveID, _, sink := newTestFactory(t, Config{TradingFeeBps: 100, CreationFee: unitsOf(1)})

	res, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), unitsOf(2))
	require.NoError(t, err)
	require.NotNil(t, res.InitialBuy)
	require.Zero(t, res.InitialBuy.Quote.AmountIn.Cmp(unitsOf(1)))
	require.Zero(t, res.Ledger.CirculatingSupply.Cmp(unitsOf(198)))
	require.Len(t, sink.trades, 1)
	require.Equal(t, uint64(1), sink.trades[0].Sequence)
}

func TestCreateAssetRollsBackWhenInitialBuyRejected(t *testing.T) {
	f, curveID, _, sink := newTestFactory(t, Config{TradingFeeBps: 100})

	// an excess beyond the 128-bit amount bound is rejected at the quote,
	// before any state changes
	paid := new(big.Int).Add(shared.U128Max, unitsOf(1))
	_, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), paid)
	require.ErrorIs(t, err, shared.ErrArithmeticOverflow)
	require.Empty(t, sink.trades)

	// the half-created asset must not be observable, and the curve reference
	// must have been given back
	f.mu.RLock()
	require.Empty(t, f.assets)
	f.mu.RUnlock()
	require.NoError(t, f.Registry().Unregister(curveID))
}

func TestCreateAssetSurvivesInitialBuySinkFailure(t *testing.T) {
	f, curveID, _, sink := newTestFactory(t, Config{TradingFeeBps: 100})
	sink.failTrade = errors.New("sink down")

	// the buy applied before the sink failed, so the asset must stand
	res, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), unitsOf(1))
	require.Error(t, err)
	require.NotNil(t, res)
	require.NotNil(t, res.InitialBuy)
	require.Zero(t, res.Ledger.CirculatingSupply.Cmp(unitsOf(198)))

	snap, err := f.Asset(res.AssetID)
	require.NoError(t, err)
	require.Zero(t, snap.CirculatingSupply.Cmp(unitsOf(198)))
}

func TestCreateAssetKeepsAssetWhenMigrationFails(t *testing.T) {
	f, curveID, pool, sink := newTestFactory(t, Config{})
	pool.setFailure(errors.New("pool offline"))

	// the overpaid creation fee fully subscribes the curve; only the
	// external deposit fails, so the graduated asset must survive with its
	// migration pending
	res, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), unitsOf(100_000_000))
	require.ErrorIs(t, err, shared.ErrExternalMigrationFailed)
	require.NotNil(t, res)
	require.NotNil(t, res.InitialBuy)
	require.True(t, res.InitialBuy.Launched)
	require.True(t, res.InitialBuy.MigrationPending)
	require.Equal(t, shared.AssetStateLaunched, res.Ledger.State)
	require.Len(t, sink.trades, 1)
	require.Equal(t, res.AssetID, sink.trades[0].AssetID)

	snap, err := f.Asset(res.AssetID)
	require.NoError(t, err)
	require.Equal(t, shared.AssetStateLaunched, snap.State)

	pool.setFailure(nil)
	require.NoError(t, f.RetryMigration(context.Background(), res.AssetID))
	require.Len(t, pool.deposits, 1)
	require.Len(t, sink.launches, 1)
}

func TestBuyUnknownAsset(t *testing.T) {
	f, _, _, _ := newTestFactory(t, Config{TradingFeeBps: 100})
	_, err := f.Buy(context.Background(), uuid.New(), unitsOf(1), nil)
	require.ErrorIs(t, err, shared.ErrUnknownAsset)
	_, err = f.Sell(context.Background(), uuid.New(), unitsOf(1), nil)
	require.ErrorIs(t, err, shared.ErrUnknownAsset)
	require.ErrorIs(t, f.RetryMigration(context.Background(), uuid.New()), shared.ErrUnknownAsset)
}

func TestBuySellUpdatesLedger(t *testing.T) {
	f, curveID, _, sink := newTestFactory(t, Config{TradingFeeBps: 100})
	created, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), nil)
	require.NoError(t, err)

	buy, err := f.Buy(context.Background(), created.AssetID, unitsOf(1), nil)
	require.NoError(t, err)
	require.False(t, buy.Launched)
	require.Zero(t, buy.Quote.AmountOut.Cmp(unitsOf(198)))
	require.Zero(t, buy.Ledger.CirculatingSupply.Cmp(unitsOf(198)))
	require.Zero(t, buy.Ledger.FeesAccrued.Cmp(buy.Quote.FeeAmount))

	sell, err := f.Sell(context.Background(), created.AssetID, unitsOf(100), nil)
	require.NoError(t, err)
	require.Zero(t, sell.Ledger.CirculatingSupply.Cmp(unitsOf(98)))
	require.Positive(t, sell.Quote.AmountOut.Sign())

	// events carry per-asset sequence in application order, with the
	// reserve and token legs oriented by direction
	require.Len(t, sink.trades, 2)
	require.Equal(t, uint64(1), sink.trades[0].Sequence)
	require.Equal(t, uint64(2), sink.trades[1].Sequence)
	require.Equal(t, shared.TradeDirectionBuy, sink.trades[0].Direction)
	require.Equal(t, shared.TradeDirectionSell, sink.trades[1].Direction)
	require.Zero(t, sink.trades[0].TokenAmount.Cmp(unitsOf(198)))
	require.Zero(t, sink.trades[1].TokenAmount.Cmp(unitsOf(100)))
	require.Zero(t, sink.trades[1].ReserveAmount.Cmp(sell.Quote.AmountOut))

	snap, err := f.Asset(created.AssetID)
	require.NoError(t, err)
	require.Zero(t, snap.CirculatingSupply.Cmp(unitsOf(98)))
}

func TestBuyGraduatesAndMigrates(t *testing.T) {
	f, curveID, pool, sink := newTestFactory(t, Config{})
	created, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), nil)
	require.NoError(t, err)

	res, err := f.Buy(context.Background(), created.AssetID, unitsOf(100_000_000), nil)
	require.NoError(t, err)
	require.True(t, res.Launched)
	require.False(t, res.MigrationPending)
	require.Zero(t, res.Quote.AmountOut.Cmp(unitsOf(1_000_000)))
	require.Positive(t, res.Quote.AmountRefused.Sign())
	require.Equal(t, shared.AssetStateLaunched, res.Ledger.State)

	require.Len(t, pool.deposits, 1)
	dep := pool.deposits[0]
	require.Equal(t, created.AssetID, dep.assetID)
	// 80% of the accumulated reserve moves, and every token circulated so
	// no supply is left for the pool side
	wantReserve := new(big.Int).Mul(res.Ledger.ReserveBalance, big.NewInt(8000))
	wantReserve.Div(wantReserve, big.NewInt(shared.Basis))
	require.Zero(t, dep.reserve.Cmp(wantReserve))
	require.Zero(t, dep.token.Sign())

	require.Len(t, sink.launches, 1)
	require.Equal(t, created.AssetID, sink.launches[0].AssetID)
	require.Zero(t, sink.launches[0].FinalReserveMigrated.Cmp(wantReserve))

	// the asset is frozen after launch
	_, err = f.Buy(context.Background(), created.AssetID, unitsOf(1), nil)
	require.ErrorIs(t, err, shared.ErrAssetAlreadyLaunched)
	_, err = f.Sell(context.Background(), created.AssetID, unitsOf(1), nil)
	require.ErrorIs(t, err, shared.ErrAssetAlreadyLaunched)
}

func TestGraduatingBuySurvivesSinkFailure(t *testing.T) {
	f, curveID, pool, sink := newTestFactory(t, Config{})
	created, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), nil)
	require.NoError(t, err)

	// the sink rejects the graduating trade; the applied buy still fully
	// subscribes the curve, so graduation and migration must run anyway
	sink.failTrade = errors.New("sink down")
	res, err := f.Buy(context.Background(), created.AssetID, unitsOf(100_000_000), nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, shared.ErrExternalMigrationFailed)
	require.True(t, res.Launched)
	require.False(t, res.MigrationPending)
	require.Equal(t, shared.AssetStateLaunched, res.Ledger.State)
	require.Len(t, pool.deposits, 1)
	require.Len(t, sink.launches, 1)
	require.ErrorIs(t, f.RetryMigration(context.Background(), created.AssetID), shared.ErrMigrationNotPending)
}

func TestGraduatingBuyJoinsSinkAndMigrationFailures(t *testing.T) {
	f, curveID, pool, sink := newTestFactory(t, Config{})
	created, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), nil)
	require.NoError(t, err)

	sink.failTrade = errors.New("sink down")
	pool.setFailure(errors.New("pool offline"))
	res, err := f.Buy(context.Background(), created.AssetID, unitsOf(100_000_000), nil)
	require.ErrorIs(t, err, shared.ErrExternalMigrationFailed)
	require.True(t, res.Launched)
	require.True(t, res.MigrationPending)

	pool.setFailure(nil)
	require.NoError(t, f.RetryMigration(context.Background(), created.AssetID))
}

func TestMigrationRetryAfterPoolFailure(t *testing.T) {
	f, curveID, pool, sink := newTestFactory(t, Config{})
	created, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), nil)
	require.NoError(t, err)

	pool.setFailure(errors.New("pool offline"))
	res, err := f.Buy(context.Background(), created.AssetID, unitsOf(100_000_000), nil)
	require.ErrorIs(t, err, shared.ErrExternalMigrationFailed)
	require.NotNil(t, res)
	require.True(t, res.Launched)
	require.True(t, res.MigrationPending)
	require.Equal(t, shared.AssetStateLaunched, res.Ledger.State)
	require.Empty(t, sink.launches)

	// still failing
	require.ErrorIs(t, f.RetryMigration(context.Background(), created.AssetID), shared.ErrExternalMigrationFailed)

	pool.setFailure(nil)
	require.NoError(t, f.RetryMigration(context.Background(), created.AssetID))
	require.Len(t, pool.deposits, 1)
	require.Len(t, sink.launches, 1)

	// a completed migration cannot be retried
	require.ErrorIs(t, f.RetryMigration(context.Background(), created.AssetID), shared.ErrMigrationNotPending)
}

func TestRetryMigrationWithoutGraduation(t *testing.T) {
	f, curveID, _, _ := newTestFactory(t, Config{})
	created, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), nil)
	require.NoError(t, err)
	require.ErrorIs(t, f.RetryMigration(context.Background(), created.AssetID), shared.ErrMigrationNotPending)
}

func TestAssetsTradeIndependently(t *testing.T) {
	f, curveID, _, _ := newTestFactory(t, Config{TradingFeeBps: 100})

	a, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), nil)
	require.NoError(t, err)
	b, err := f.CreateAsset(context.Background(), "bob", curveID, unitsOf(1_000_000), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, id := range []uuid.UUID{a.AssetID, b.AssetID} {
		wg.Add(1)
		go func(assetID uuid.UUID) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, err := f.Buy(context.Background(), assetID, unitsOf(1), nil)
				require.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []uuid.UUID{a.AssetID, b.AssetID} {
		snap, err := f.Asset(id)
		require.NoError(t, err)
		require.Zero(t, snap.CirculatingSupply.Cmp(unitsOf(1980)))
	}
}

func TestCurrentPriceReflectsPosition(t *testing.T) {
	f, curveID, _, _ := newTestFactory(t, Config{TradingFeeBps: 100})
	created, err := f.CreateAsset(context.Background(), "alice", curveID, unitsOf(1_000_000), nil)
	require.NoError(t, err)

	p0, err := f.CurrentPrice(created.AssetID)
	require.NoError(t, err)
	require.Positive(t, p0.Sign())

	res, err := f.Buy(context.Background(), created.AssetID, unitsOf(1), nil)
	require.NoError(t, err)
	require.Zero(t, res.Event.ResultingPrice.Cmp(p0))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SLOTH_TRADING_FEE_BPS", "250")
	t.Setenv("SLOTH_CREATION_FEE", "1000000000000000000")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, uint32(250), cfg.TradingFeeBps)
	require.Zero(t, cfg.CreationFee.Cmp(unitsOf(1)))

	t.Setenv("SLOTH_TRADING_FEE_BPS", "5000")
	_, err = ConfigFromEnv()
	require.ErrorIs(t, err, shared.ErrInvalidCurveParameters)

	t.Setenv("SLOTH_TRADING_FEE_BPS", "100")
	t.Setenv("SLOTH_CREATION_FEE", "not-a-number")
	_, err = ConfigFromEnv()
	require.Error(t, err)
}
