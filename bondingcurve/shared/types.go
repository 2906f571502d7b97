package shared

import "math/big"

const (
	// Basis is the basis-point denominator used by every ratio in the engine.
	Basis = 10_000

	// UnitDecimals is the fixed-point scale of all supply and reserve amounts.
	UnitDecimals = 18

	MaxBinCount = 1_000

	MaxTradingFeeBps = 1_000

	// PowMaxTerms bounds the binomial series used for reserve-ratio pricing.
	PowMaxTerms = 64
)

var (
	// Unit is 10^18, the scale of every fixed-point amount.
	Unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(UnitDecimals), nil)

	// U128Max bounds every amount the engine accepts or produces.
	U128Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

type Rounding uint8

const (
	RoundingDown Rounding = iota
	RoundingUp
)

type TradeDirection uint8

const (
	TradeDirectionBuy TradeDirection = iota
	TradeDirectionSell
)

func (d TradeDirection) String() string {
	if d == TradeDirectionSell {
		return "sell"
	}
	return "buy"
}

// AssetState is the per-asset lifecycle: Active while the curve trades,
// Launched (terminal) once the curve is fully subscribed and migrated.
type AssetState uint8

const (
	AssetStateActive AssetState = iota
	AssetStateLaunched
)

func (s AssetState) String() string {
	if s == AssetStateLaunched {
		return "launched"
	}
	return "active"
}

type CurveKind uint8

const (
	CurveKindBinSchedule CurveKind = iota
	CurveKindReserveRatio
)

func (k CurveKind) String() string {
	if k == CurveKindReserveRatio {
		return "reserve_ratio"
	}
	return "bin_schedule"
}
