package launchpad

import (
	"bytes"
	"math/big"
	"time"

	binary "github.com/gagliardetto/binary"
	"github.com/google/uuid"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
	"github.com/slothagent/sloth-agent-sub003/u128"
)

// TradeEvent is emitted exactly once per applied trade, in application
// order per asset. Sequence is the per-asset application counter.
type TradeEvent struct {
	EventID   uuid.UUID
	AssetID   uuid.UUID
	Sequence  uint64
	Timestamp time.Time
	Direction shared.TradeDirection

	ReserveAmount *big.Int
	TokenAmount   *big.Int
	FeeAmount     *big.Int

	ResultingPrice    *big.Int
	ResultingBinIndex uint32
}

// LaunchEvent is emitted exactly once when migration completes.
type LaunchEvent struct {
	AssetID              uuid.UUID
	Timestamp            time.Time
	FinalReserveMigrated *big.Int
	FinalSupplyMigrated  *big.Int
}

// Wire forms: fixed-width borsh structs for downstream stores.

type tradeEventWire struct {
	EventID           [16]byte
	AssetID           [16]byte
	Sequence          uint64
	TimestampMillis   int64
	Direction         uint8
	ReserveAmount     binary.Uint128
	TokenAmount       binary.Uint128
	FeeAmount         binary.Uint128
	ResultingPrice    binary.Uint128
	ResultingBinIndex uint32
}

type launchEventWire struct {
	AssetID              [16]byte
	TimestampMillis      int64
	FinalReserveMigrated binary.Uint128
	FinalSupplyMigrated  binary.Uint128
}

func (e TradeEvent) MarshalBinary() ([]byte, error) {
	reserve, err := u128.FromBig(e.ReserveAmount)
	if err != nil {
		return nil, err
	}
	tokens, err := u128.FromBig(e.TokenAmount)
	if err != nil {
		return nil, err
	}
	fee, err := u128.FromBig(e.FeeAmount)
	if err != nil {
		return nil, err
	}
	price, err := u128.FromBig(e.ResultingPrice)
	if err != nil {
		return nil, err
	}
	wire := tradeEventWire{
		EventID:           e.EventID,
		AssetID:           e.AssetID,
		Sequence:          e.Sequence,
		TimestampMillis:   e.Timestamp.UTC().UnixMilli(),
		Direction:         uint8(e.Direction),
		ReserveAmount:     reserve,
		TokenAmount:       tokens,
		FeeAmount:         fee,
		ResultingPrice:    price,
		ResultingBinIndex: e.ResultingBinIndex,
	}
	var buf bytes.Buffer
	if err := binary.NewBorshEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *TradeEvent) UnmarshalBinary(data []byte) error {
	var wire tradeEventWire
	if err := binary.NewBorshDecoder(data).Decode(&wire); err != nil {
		return err
	}
	e.EventID = wire.EventID
	e.AssetID = wire.AssetID
	e.Sequence = wire.Sequence
	e.Timestamp = time.UnixMilli(wire.TimestampMillis).UTC()
	e.Direction = shared.TradeDirection(wire.Direction)
	e.ReserveAmount = u128.ToBig(wire.ReserveAmount)
	e.TokenAmount = u128.ToBig(wire.TokenAmount)
	e.FeeAmount = u128.ToBig(wire.FeeAmount)
	e.ResultingPrice = u128.ToBig(wire.ResultingPrice)
	e.ResultingBinIndex = wire.ResultingBinIndex
	return nil
}

func (e LaunchEvent) MarshalBinary() ([]byte, error) {
	reserve, err := u128.FromBig(e.FinalReserveMigrated)
	if err != nil {
		return nil, err
	}
	supply, err := u128.FromBig(e.FinalSupplyMigrated)
	if err != nil {
		return nil, err
	}
	wire := launchEventWire{
		AssetID:              e.AssetID,
		TimestampMillis:      e.Timestamp.UTC().UnixMilli(),
		FinalReserveMigrated: reserve,
		FinalSupplyMigrated:  supply,
	}
	var buf bytes.Buffer
	if err := binary.NewBorshEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *LaunchEvent) UnmarshalBinary(data []byte) error {
	var wire launchEventWire
	if err := binary.NewBorshDecoder(data).Decode(&wire); err != nil {
		return err
	}
	e.AssetID = wire.AssetID
	e.Timestamp = time.UnixMilli(wire.TimestampMillis).UTC()
	e.FinalReserveMigrated = u128.ToBig(wire.FinalReserveMigrated)
	e.FinalSupplyMigrated = u128.ToBig(wire.FinalSupplyMigrated)
	return nil
}
