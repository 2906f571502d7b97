package bondingcurve

import (
	"math/big"

	"github.com/google/uuid"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// AssetLedger is the mutable state of one issued asset. It is owned
// exclusively by its controller under a single-writer discipline; nothing
// in this package mutates it.
//
// Invariant: CirculatingSupply == InitialSupply - (CurrentBinRemaining +
// capacities of all bins above CurrentBinIndex). Once State is Launched
// every field except FeesAccrued is frozen.
type AssetLedger struct {
	AssetID uuid.UUID
	CurveID uint32
	Creator string

	InitialSupply *big.Int

	CurrentBinIndex     uint32
	CurrentBinRemaining *big.Int
	ReserveBalance      *big.Int
	CirculatingSupply   *big.Int

	// FeesAccrued is a historical counter of protocol fees taken on trades
	// against this asset.
	FeesAccrued *big.Int

	State shared.AssetState
}

// NewAssetLedger allocates a fresh Active ledger positioned at bin 0.
func NewAssetLedger(assetID uuid.UUID, curve *CurveTable, creator string, initialSupply *big.Int) (*AssetLedger, error) {
	if initialSupply == nil || initialSupply.Sign() <= 0 || initialSupply.Cmp(shared.U128Max) > 0 {
		return nil, shared.ErrInvalidSupply
	}
	l := &AssetLedger{
		AssetID:           assetID,
		CurveID:           curve.ID,
		Creator:           creator,
		InitialSupply:     new(big.Int).Set(initialSupply),
		CurrentBinIndex:   0,
		ReserveBalance:    big.NewInt(0),
		CirculatingSupply: big.NewInt(0),
		FeesAccrued:       big.NewInt(0),
		State:             shared.AssetStateActive,
	}
	switch curve.Params.Kind {
	case shared.CurveKindBinSchedule:
		cap0, err := curve.BinCurve().Capacity(l.InitialSupply, 0)
		if err != nil {
			return nil, err
		}
		l.CurrentBinRemaining = cap0
	default:
		// reserve-ratio curves have no bins; the remaining counter tracks
		// unissued supply so the shared invariant still reads true
		l.CurrentBinRemaining = new(big.Int).Set(l.InitialSupply)
	}
	return l, nil
}

// Clone deep-copies the ledger. Quotes operate on clones so a failed quote
// can never leak partial state.
func (l *AssetLedger) Clone() *AssetLedger {
	c := *l
	c.InitialSupply = new(big.Int).Set(l.InitialSupply)
	c.CurrentBinRemaining = new(big.Int).Set(l.CurrentBinRemaining)
	c.ReserveBalance = new(big.Int).Set(l.ReserveBalance)
	c.CirculatingSupply = new(big.Int).Set(l.CirculatingSupply)
	c.FeesAccrued = new(big.Int).Set(l.FeesAccrued)
	return &c
}
