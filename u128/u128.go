// Package u128 bridges engine amounts (*big.Int, bounded to 128 bits) and
// the fixed-width Uint128 used on the binary event wire.
package u128

import (
	"errors"
	"fmt"
	"math/big"

	binary "github.com/gagliardetto/binary"
)

type Uint128 binary.Uint128

func (u *Uint128) Scan(s fmt.ScanState, ch rune) error {
	i := new(big.Int)
	if err := i.Scan(s, ch); err != nil {
		return err
	}
	v, err := FromBig(i)
	if err != nil {
		return err
	}
	*u = Uint128(v)
	return nil
}

// FromBig converts a non-negative big.Int into a little-endian Uint128.
func FromBig(v *big.Int) (binary.Uint128, error) {
	if v.Sign() < 0 {
		return binary.Uint128{}, errors.New("value cannot be negative")
	}
	if v.BitLen() > 128 {
		return binary.Uint128{}, errors.New("value overflows Uint128")
	}
	u := binary.NewUint128LittleEndian()
	u.Lo = v.Uint64()
	u.Hi = new(big.Int).Rsh(v, 64).Uint64()
	return *u, nil
}

// ToBig converts back to big.Int.
func ToBig(u binary.Uint128) *big.Int {
	out := new(big.Int).SetUint64(u.Hi)
	out.Lsh(out, 64)
	return out.Or(out, new(big.Int).SetUint64(u.Lo))
}

// FromString parses a non-negative decimal string, rejecting values over
// 128 bits.
func FromString(num string) (binary.Uint128, error) {
	u := binary.NewUint128LittleEndian()
	if _, err := fmt.Sscan(num, (*Uint128)(u)); err != nil {
		return binary.Uint128{}, err
	}
	return *u, nil
}
