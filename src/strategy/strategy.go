// Package strategy provides reference implementations of the simulation
// engine's Strategy interface.
package strategy

import (
	"time"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
	"github.com/jiaming2012/trading-simulator/src/portfolio"
)

// BuyAndHold enters with the default all-in buy on the first bar and never
// exits. Useful as a baseline: its results should track BuyHoldReturn up to
// commission and the cash reserve.
type BuyAndHold struct {
	entered bool
}

func NewBuyAndHold() *BuyAndHold {
	return &BuyAndHold{}
}

func (s *BuyAndHold) Name() string {
	return "buy-and-hold"
}

func (s *BuyAndHold) GenerateDecision(candle *eventmodels.Candle, snapshot portfolio.Snapshot, t time.Time) *eventmodels.TradeDecision {
	if s.entered {
		return eventmodels.NewTradeDecision(eventmodels.TradeActionHold)
	}

	s.entered = true
	return eventmodels.NewTradeDecision(eventmodels.TradeActionBuy)
}
