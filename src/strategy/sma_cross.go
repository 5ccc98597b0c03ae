package strategy

import (
	"time"

	"github.com/montanaflynn/stats"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
	"github.com/jiaming2012/trading-simulator/src/portfolio"
)

// SMACross is a simple trend-following strategy: it buys when the fast moving
// average crosses above the slow one and sells the full holding on the
// opposite cross.
type SMACross struct {
	fastPeriod int
	slowPeriod int
	closes     []float64
	wasAbove   bool
	primed     bool
}

func NewSMACross(fastPeriod, slowPeriod int) *SMACross {
	return &SMACross{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
	}
}

func (s *SMACross) Name() string {
	return "sma-cross"
}

func (s *SMACross) GenerateDecision(candle *eventmodels.Candle, snapshot portfolio.Snapshot, t time.Time) *eventmodels.TradeDecision {
	s.closes = append(s.closes, candle.Close)

	if len(s.closes) < s.slowPeriod {
		return eventmodels.NewTradeDecision(eventmodels.TradeActionHold)
	}

	fast, err := stats.Mean(s.closes[len(s.closes)-s.fastPeriod:])
	if err != nil {
		log.Errorf("GenerateDecision: failed to calculate fast sma: %v", err)
		return eventmodels.NewTradeDecision(eventmodels.TradeActionHold)
	}

	slow, err := stats.Mean(s.closes[len(s.closes)-s.slowPeriod:])
	if err != nil {
		log.Errorf("GenerateDecision: failed to calculate slow sma: %v", err)
		return eventmodels.NewTradeDecision(eventmodels.TradeActionHold)
	}

	isAbove := fast > slow

	// the first complete window only primes the cross detector
	if !s.primed {
		s.primed = true
		s.wasAbove = isAbove
		return eventmodels.NewTradeDecision(eventmodels.TradeActionHold)
	}

	crossedUp := isAbove && !s.wasAbove
	crossedDown := !isAbove && s.wasAbove
	s.wasAbove = isAbove

	if crossedUp && snapshot.AssetAmount.IsZero() {
		return eventmodels.NewTradeDecision(eventmodels.TradeActionBuy)
	}

	if crossedDown && snapshot.AssetAmount.Sign() > 0 {
		return eventmodels.NewTradeDecision(eventmodels.TradeActionSell)
	}

	return eventmodels.NewTradeDecision(eventmodels.TradeActionHold)
}
