package launchpad

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/slothagent/sloth-agent-sub003/bondingcurve/shared"
)

func TestTradeEventWireRoundTrip(t *testing.T) {
	ev := TradeEvent{
		EventID:           uuid.New(),
		AssetID:           uuid.New(),
		Sequence:          42,
		Timestamp:         time.Now().Truncate(time.Millisecond),
		Direction:         shared.TradeDirectionSell,
		ReserveAmount:     unitsOf(3),
		TokenAmount:       unitsOf(600),
		FeeAmount:         big.NewInt(30_000_000_000_000_000),
		ResultingPrice:    big.NewInt(5_000_000_000_000_000),
		ResultingBinIndex: 2,
	}

	data, err := ev.MarshalBinary()
	require.NoError(t, err)

	var got TradeEvent
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, ev.EventID, got.EventID)
	require.Equal(t, ev.AssetID, got.AssetID)
	require.Equal(t, ev.Sequence, got.Sequence)
	require.True(t, got.Timestamp.Equal(ev.Timestamp))
	require.Equal(t, ev.Direction, got.Direction)
	require.Zero(t, got.ReserveAmount.Cmp(ev.ReserveAmount))
	require.Zero(t, got.TokenAmount.Cmp(ev.TokenAmount))
	require.Zero(t, got.FeeAmount.Cmp(ev.FeeAmount))
	require.Zero(t, got.ResultingPrice.Cmp(ev.ResultingPrice))
	require.Equal(t, ev.ResultingBinIndex, got.ResultingBinIndex)
}

func TestTradeEventWireRejectsOversizedAmount(t *testing.T) {
	over := new(big.Int).Add(shared.U128Max, big.NewInt(1))
	ev := TradeEvent{
		ReserveAmount:  over,
		TokenAmount:    big.NewInt(0),
		FeeAmount:      big.NewInt(0),
		ResultingPrice: big.NewInt(0),
	}
	_, err := ev.MarshalBinary()
	require.Error(t, err)
}

func TestLaunchEventWireRoundTrip(t *testing.T) {
	ev := LaunchEvent{
		AssetID:              uuid.New(),
		Timestamp:            time.Now().Truncate(time.Millisecond),
		FinalReserveMigrated: unitsOf(8_000),
		FinalSupplyMigrated:  big.NewInt(0),
	}

	data, err := ev.MarshalBinary()
	require.NoError(t, err)

	var got LaunchEvent
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, ev.AssetID, got.AssetID)
	require.True(t, got.Timestamp.Equal(ev.Timestamp))
	require.Zero(t, got.FinalReserveMigrated.Cmp(ev.FinalReserveMigrated))
	require.Zero(t, got.FinalSupplyMigrated.Cmp(ev.FinalSupplyMigrated))
}
