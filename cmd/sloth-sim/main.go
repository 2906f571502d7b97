// sloth-sim drives the issuance engine as a host process would: it
// registers a curve, creates an asset, runs scripted buys and sells until
// the curve graduates, and records the trade history in SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"

	"go.uber.org/zap"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/helpers"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
	"github.com/slothagent/sloth-agent-sub003/cp_amm"
	"github.com/slothagent/sloth-agent-sub003/history"
	"github.com/slothagent/sloth-agent-sub003/launchpad"
)

func main() {
	var (
		dbPath   = flag.String("db", "sloth-sim.db", "path to the history SQLite database")
		binCount = flag.Int("bins", 21, "bin count for the launch curve")
		buySize  = flag.String("buy", "1000000000000000000", "reserve per simulated buy, Unit-scaled")
	)
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log, *dbPath, *binCount, *buySize); err != nil {
		log.Fatal("simulation failed", zap.Error(err))
	}
}

func run(log *zap.Logger, dbPath string, binCount int, buySize string) error {
	ctx := context.Background()

	cfg, err := launchpad.ConfigFromEnv()
	if err != nil {
		return err
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	amm, err := cp_amm.New(30)
	if err != nil {
		return err
	}

	registry := bondingcurve.NewRegistry()
	factory, err := launchpad.New(cfg, registry, amm, store, log)
	if err != nil {
		return err
	}

	params, err := helpers.BuildBellCurve(binCount, 2000, 2, 8000)
	if err != nil {
		return err
	}
	curveID, err := registry.Register(params)
	if err != nil {
		return err
	}
	log.Info("curve registered", zap.Uint32("curve_id", curveID))

	initialSupply := new(big.Int).Mul(big.NewInt(1_000_000), shared.Unit)
	created, err := factory.CreateAsset(ctx, "simulator", curveID, initialSupply, cfg.CreationFee)
	if err != nil {
		return err
	}
	assetID := created.AssetID

	chunk, ok := new(big.Int).SetString(buySize, 10)
	if !ok || chunk.Sign() <= 0 {
		return fmt.Errorf("invalid buy size %q", buySize)
	}

	for i := 0; ; i++ {
		res, err := factory.Buy(ctx, assetID, chunk, nil)
		if err != nil {
			return err
		}
		// sell a tenth back every fourth trade to exercise the down walk
		if i%4 == 3 && !res.Launched {
			tenth := new(big.Int).Div(res.Quote.AmountOut, big.NewInt(10))
			if tenth.Sign() > 0 {
				if _, err := factory.Sell(ctx, assetID, tenth, nil); err != nil {
					return err
				}
			}
		}
		if res.Launched {
			log.Info("graduated",
				zap.Int("trades", i+1),
				zap.String("final_reserve", res.Ledger.ReserveBalance.String()),
			)
			break
		}
	}

	pool, ok := amm.Pool(assetID)
	if !ok {
		return fmt.Errorf("pool missing after graduation")
	}
	log.Info("pool seeded",
		zap.String("reserve_side", pool.ReserveX.String()),
		zap.String("token_side", pool.ReserveY.String()),
	)

	rows, err := store.TradesByAsset(ctx, assetID, 10)
	if err != nil {
		return err
	}
	for _, r := range rows {
		log.Info("history",
			zap.Uint64("seq", r.Sequence),
			zap.String("direction", r.Direction),
			zap.String("price", r.Price.String()),
		)
	}
	return nil
}
