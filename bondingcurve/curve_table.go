// Package bondingcurve holds the pricing state and pure quote computation
// for curve-issued assets: registered curve tables, per-asset ledgers, and
// the buy/sell quote engine.
package bondingcurve

import (
	"math/big"
	"sync"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/math"
	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

// CurveParams describes a curve at registration time.
//
// BinSchedule curves price linearly by bin index. Distribution optionally
// replaces the uniform per-bin capacity with explicit basis-point weights
// (summing to Basis); when set, its length is the bin count.
//
// ReserveRatio curves price by the Bancor closed form over the ledger's
// reserve and supply, seeded with virtual balances so the first trade is
// well defined.
type CurveParams struct {
	Kind shared.CurveKind

	BinWidthBps  uint32
	BinCount     uint32
	Coefficient  uint32
	Distribution []uint32

	RatioBps       uint32
	VirtualReserve *big.Int
	VirtualSupply  *big.Int

	// PercentOfLiquidityBps is the reserve share migrated at graduation.
	PercentOfLiquidityBps uint32
	// ReserveAtLaunch, when set, is the minimum reserve the migrator moves
	// regardless of the percentage.
	ReserveAtLaunch *big.Int
}

// CurveTable is an immutable registered curve, shared read-only by every
// asset that references it.
type CurveTable struct {
	ID     uint32
	Params CurveParams
}

func (c *CurveTable) BinCurve() math.BinCurve {
	return math.BinCurve{
		BinWidthBps:  c.Params.BinWidthBps,
		BinCount:     c.Params.BinCount,
		Coefficient:  c.Params.Coefficient,
		Distribution: c.Params.Distribution,
	}
}

func validateCurveParams(p CurveParams) error {
	if p.PercentOfLiquidityBps == 0 || p.PercentOfLiquidityBps > shared.Basis {
		return shared.ErrInvalidCurveParameters
	}
	if p.ReserveAtLaunch != nil && p.ReserveAtLaunch.Sign() < 0 {
		return shared.ErrInvalidCurveParameters
	}
	switch p.Kind {
	case shared.CurveKindBinSchedule:
		if p.BinWidthBps == 0 || p.Coefficient == 0 {
			return shared.ErrInvalidCurveParameters
		}
		if p.Distribution != nil {
			if len(p.Distribution) == 0 || len(p.Distribution) > shared.MaxBinCount {
				return shared.ErrInvalidCurveParameters
			}
			sum := uint64(0)
			for _, w := range p.Distribution {
				if w == 0 {
					return shared.ErrInvalidCurveParameters
				}
				sum += uint64(w)
			}
			if sum != shared.Basis {
				return shared.ErrInvalidCurveParameters
			}
		} else if p.BinCount == 0 || p.BinCount > shared.MaxBinCount {
			return shared.ErrInvalidCurveParameters
		}
		return nil
	case shared.CurveKindReserveRatio:
		if p.RatioBps == 0 || p.RatioBps > shared.Basis {
			return shared.ErrInvalidCurveParameters
		}
		if p.VirtualReserve == nil || p.VirtualReserve.Sign() <= 0 {
			return shared.ErrInvalidCurveParameters
		}
		if p.VirtualSupply == nil || p.VirtualSupply.Sign() <= 0 {
			return shared.ErrInvalidCurveParameters
		}
		return nil
	default:
		return shared.ErrInvalidCurveParameters
	}
}

// Registry holds registered curve tables. Registration is administrative;
// tables are immutable afterwards and safe for unsynchronized reads.
type Registry struct {
	mu     sync.RWMutex
	next   uint32
	curves map[uint32]*CurveTable
	refs   map[uint32]int
}

func NewRegistry() *Registry {
	return &Registry{
		next:   1,
		curves: make(map[uint32]*CurveTable),
		refs:   make(map[uint32]int),
	}
}

// Register validates and stores a curve, returning its id.
func (r *Registry) Register(p CurveParams) (uint32, error) {
	if err := validateCurveParams(p); err != nil {
		return 0, err
	}
	if p.Distribution != nil {
		p.BinCount = uint32(len(p.Distribution))
		p.Distribution = append([]uint32(nil), p.Distribution...)
	}
	if p.VirtualReserve != nil {
		p.VirtualReserve = new(big.Int).Set(p.VirtualReserve)
	}
	if p.VirtualSupply != nil {
		p.VirtualSupply = new(big.Int).Set(p.VirtualSupply)
	}
	if p.ReserveAtLaunch != nil {
		p.ReserveAtLaunch = new(big.Int).Set(p.ReserveAtLaunch)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	r.curves[id] = &CurveTable{ID: id, Params: p}
	return id, nil
}

func (r *Registry) Get(id uint32) (*CurveTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.curves[id]
	if !ok {
		return nil, shared.ErrUnknownCurve
	}
	return c, nil
}

// Unregister removes a curve no asset references. Storage hygiene only.
func (r *Registry) Unregister(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.curves[id]; !ok {
		return shared.ErrUnknownCurve
	}
	if r.refs[id] > 0 {
		return shared.ErrCurveInUse
	}
	delete(r.curves, id)
	delete(r.refs, id)
	return nil
}

// Curves lists registered tables in unspecified order.
func (r *Registry) Curves() []*CurveTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*CurveTable, 0, len(r.curves))
	for _, c := range r.curves {
		out = append(out, c)
	}
	return out
}

// Retain records one asset reference against a curve.
func (r *Registry) Retain(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.curves[id]; !ok {
		return shared.ErrUnknownCurve
	}
	r.refs[id]++
	return nil
}

// Release drops one asset reference.
func (r *Registry) Release(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs[id] > 0 {
		r.refs[id]--
	}
}
