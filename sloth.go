// Package sloth is a continuous-token issuance engine: assets are minted
// against a reserve currency, priced by a deterministic bonding curve, and
// graduated into a constant-product pool once the curve is fully
// subscribed.
package sloth

import (
	"github.com/slothagent/sloth-agent-sub003/bondingcurve"
	"github.com/slothagent/sloth-agent-sub003/cp_amm"
	"github.com/slothagent/sloth-agent-sub003/launchpad"
)

// NewFactory creates the issuance controller.
//
// Example:
//
// registry := sloth.NewCurveRegistry()
//
// amm, _ := sloth.NewAMM(30)
//
// factory, _ := sloth.NewFactory(cfg, registry, amm, sink, logger)
//
// factory.Buy(ctx, assetID, reserveIn, minTokensOut)
var NewFactory = launchpad.New

// NewCurveRegistry creates the administrative curve table registry.
var NewCurveRegistry = bondingcurve.NewRegistry

// NewAMM creates the in-process constant-product pool set used as the
// default graduation target.
var NewAMM = cp_amm.New
