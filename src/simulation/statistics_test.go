package simulation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
)

func tradeEvent(action eventmodels.TradeAction, amount, price, commission string, at time.Time) *eventmodels.TradeEvent {
	amountD := d(amount)
	priceD := d(price)

	return &eventmodels.TradeEvent{
		Header:     eventmodels.NewEventHeader(at),
		Action:     action,
		Amount:     amountD,
		Price:      priceD,
		Value:      amountD.Mul(priceD),
		Commission: d(commission),
	}
}

func TestNewTradeStats(t *testing.T) {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty log yields zero stats", func(t *testing.T) {
		s := NewTradeStats(nil)

		assert.Zero(t, s.TotalTrades)
		assert.Zero(t, s.WinRate)
		assert.True(t, s.NetProfit.IsZero())
	})

	t.Run("profit and loss split by round trip", func(t *testing.T) {
		events := []eventmodels.SimulationEvent{
			tradeEvent(eventmodels.TradeActionBuy, "1", "100", "0", start),
			tradeEvent(eventmodels.TradeActionSell, "1", "120", "0", start.Add(time.Hour)),
			tradeEvent(eventmodels.TradeActionBuy, "1", "110", "0", start.Add(2*time.Hour)),
			tradeEvent(eventmodels.TradeActionSell, "1", "100", "0", start.Add(3*time.Hour)),
		}

		s := NewTradeStats(events)

		assert.Equal(t, 4, s.TotalTrades)
		assert.Equal(t, 2, s.Buys)
		assert.Equal(t, 2, s.Sells)
		assert.Equal(t, 1, s.ProfitableTrades)
		assert.Equal(t, 1, s.LosingTrades)
		assert.InDelta(t, 0.5, s.WinRate, 1e-12)
		assert.True(t, s.TotalProfit.Equal(d("20")), "profit = %s", s.TotalProfit)
		assert.True(t, s.TotalLoss.Equal(d("-10")), "loss = %s", s.TotalLoss)
		assert.True(t, s.NetProfit.Equal(d("10")))
		assert.InDelta(t, 2.0, s.ProfitFactor, 1e-12)
		assert.InDelta(t, 20.0, s.AverageProfit, 1e-12)
		assert.InDelta(t, -10.0, s.AverageLoss, 1e-12)
	})

	t.Run("buy commission is part of the cost basis", func(t *testing.T) {
		events := []eventmodels.SimulationEvent{
			tradeEvent(eventmodels.TradeActionBuy, "1", "100", "1", start),
			tradeEvent(eventmodels.TradeActionSell, "1", "100.5", "1", start.Add(time.Hour)),
		}

		s := NewTradeStats(events)

		// proceeds 99.5 against a 101 cost basis
		assert.Equal(t, 1, s.LosingTrades)
		assert.True(t, s.TotalLoss.Equal(d("-1.5")), "loss = %s", s.TotalLoss)
		assert.True(t, s.TotalCommission.Equal(d("2")))
	})

	t.Run("all winners has infinite profit factor", func(t *testing.T) {
		events := []eventmodels.SimulationEvent{
			tradeEvent(eventmodels.TradeActionBuy, "2", "50", "0", start),
			tradeEvent(eventmodels.TradeActionSell, "2", "60", "0", start.Add(time.Hour)),
		}

		s := NewTradeStats(events)

		assert.Equal(t, 1.0, s.WinRate)
		assert.True(t, math.IsInf(s.ProfitFactor, 1))
	})

	t.Run("partial sells keep the running cost basis", func(t *testing.T) {
		events := []eventmodels.SimulationEvent{
			tradeEvent(eventmodels.TradeActionBuy, "2", "100", "0", start),
			tradeEvent(eventmodels.TradeActionBuy, "2", "110", "0", start.Add(time.Hour)),
			// avg cost = (200+220)/4 = 105
			tradeEvent(eventmodels.TradeActionSell, "1", "120", "0", start.Add(2*time.Hour)),
		}

		s := NewTradeStats(events)

		assert.Equal(t, 1, s.ProfitableTrades)
		assert.True(t, s.TotalProfit.Equal(d("15")), "profit = %s", s.TotalProfit)
	})
}
