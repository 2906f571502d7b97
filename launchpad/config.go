package launchpad

import (
	"math/big"

	"github.com/caarlos0/env/v11"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// Config is the engine-wide trade configuration. Per-curve parameters live
// on the curve table instead.
type Config struct {
	// TradingFeeBps is taken on every buy input and sell output.
	TradingFeeBps uint32
	// CreationFee is the reserve amount required to create an asset.
	// Overpayment is applied as the creator's first buy.
	CreationFee *big.Int
}

func (c Config) Validate() error {
	if c.TradingFeeBps > shared.MaxTradingFeeBps {
		return shared.ErrInvalidCurveParameters
	}
	if c.CreationFee != nil && c.CreationFee.Sign() < 0 {
		return shared.ErrInvalidCurveParameters
	}
	return nil
}

func (c Config) creationFee() *big.Int {
	if c.CreationFee == nil {
		return big.NewInt(0)
	}
	return c.CreationFee
}

type envSpec struct {
	TradingFeeBps uint32 `env:"SLOTH_TRADING_FEE_BPS" envDefault:"100"`
	CreationFee   string `env:"SLOTH_CREATION_FEE" envDefault:"0"`
}

// ConfigFromEnv loads Config from SLOTH_* environment variables.
// CreationFee is a decimal string, Unit-scaled.
func ConfigFromEnv() (Config, error) {
	var spec envSpec
	if err := env.Parse(&spec); err != nil {
		return Config{}, err
	}
	fee, ok := new(big.Int).SetString(spec.CreationFee, 10)
	if !ok || fee.Sign() < 0 {
		return Config{}, shared.ErrInvalidCurveParameters
	}
	cfg := Config{TradingFeeBps: spec.TradingFeeBps, CreationFee: fee}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
