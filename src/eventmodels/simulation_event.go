package eventmodels

import (
	"time"

	"github.com/shopspring/decimal"
)

// SimulationEvent is a closed union over the two event kinds the engine
// appends to its log: trades and portfolio updates. The unexported marker
// keeps the set of variants fixed to this package.
type SimulationEvent interface {
	simulationEvent()

	// GetSimulationTime returns the replay timestamp the event occurred at.
	GetSimulationTime() time.Time
}

// EventHeader carries the fields shared by every simulation event. CreatedAt
// is wall-clock bookkeeping only; result reconstruction reads SimulationTime.
type EventHeader struct {
	CreatedAt      time.Time
	SimulationTime time.Time
}

func NewEventHeader(simulationTime time.Time) EventHeader {
	return EventHeader{
		CreatedAt:      time.Now().UTC(),
		SimulationTime: simulationTime,
	}
}

type TradeEvent struct {
	Header            EventHeader
	Action            TradeAction
	Amount            decimal.Decimal
	Price             decimal.Decimal
	Value             decimal.Decimal
	Commission        decimal.Decimal
	BalanceAfter      decimal.Decimal
	AssetAmountAfter  decimal.Decimal
	TotalValueAfter   decimal.Decimal
	BalanceBefore     decimal.Decimal
	AssetAmountBefore decimal.Decimal
	TotalValueBefore  decimal.Decimal
}

func (e *TradeEvent) simulationEvent() {}

func (e *TradeEvent) GetSimulationTime() time.Time {
	return e.Header.SimulationTime
}

type PortfolioUpdateEvent struct {
	Header      EventHeader
	Balance     decimal.Decimal
	AssetAmount decimal.Decimal
	AssetValue  decimal.Decimal
	TotalValue  decimal.Decimal
}

func (e *PortfolioUpdateEvent) simulationEvent() {}

func (e *PortfolioUpdateEvent) GetSimulationTime() time.Time {
	return e.Header.SimulationTime
}
