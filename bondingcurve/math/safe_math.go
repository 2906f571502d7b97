package math

import (
	"math/big"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// All engine amounts are unsigned 128-bit integers carried in *big.Int.
// Every operation checks the 128-bit bound so adversarial inputs surface as
// typed errors instead of silently widening.

func CheckAmount(a *big.Int) error {
	if a.Sign() < 0 || a.Cmp(shared.U128Max) > 0 {
		return shared.ErrArithmeticOverflow
	}
	return nil
}

func Add(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(a, b)
	if err := CheckAmount(sum); err != nil {
		return nil, err
	}
	return sum, nil
}

func Sub(a, b *big.Int) (*big.Int, error) {
	if b.Cmp(a) > 0 {
		return nil, shared.ErrArithmeticOverflow
	}
	return new(big.Int).Sub(a, b), nil
}

func Mul(a, b *big.Int) (*big.Int, error) {
	prod := new(big.Int).Mul(a, b)
	if err := CheckAmount(prod); err != nil {
		return nil, err
	}
	return prod, nil
}

func Div(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, shared.ErrDivisionByZero
	}
	return new(big.Int).Div(a, b), nil
}

// MulDiv computes (x*y)/denominator with a double-width intermediate.
// The product is exact in big.Int; the 128-bit bound applies to the inputs
// and to the quotient, never to the intermediate.
func MulDiv(x, y, denominator *big.Int, rounding shared.Rounding) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, shared.ErrDivisionByZero
	}
	if err := CheckAmount(x); err != nil {
		return nil, err
	}
	if err := CheckAmount(y); err != nil {
		return nil, err
	}
	prod := new(big.Int).Mul(x, y)
	if rounding == shared.RoundingUp {
		prod.Add(prod, new(big.Int).Sub(denominator, big.NewInt(1)))
	}
	quot := prod.Div(prod, denominator)
	if err := CheckAmount(quot); err != nil {
		return nil, err
	}
	return quot, nil
}
