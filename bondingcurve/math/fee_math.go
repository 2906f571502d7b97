package math

import (
	"math/big"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// FeeOnAmount splits amount into (fee, net) at feeBps basis points.
// The fee rounds down, so the net side always bears the remainder.
func FeeOnAmount(amount *big.Int, feeBps uint32) (*big.Int, *big.Int, error) {
	if feeBps > shared.MaxTradingFeeBps {
		return nil, nil, shared.ErrInvalidCurveParameters
	}
	fee, err := MulDiv(amount, new(big.Int).SetUint64(uint64(feeBps)), big.NewInt(shared.Basis), shared.RoundingDown)
	if err != nil {
		return nil, nil, err
	}
	net, err := Sub(amount, fee)
	if err != nil {
		return nil, nil, err
	}
	return fee, net, nil
}
