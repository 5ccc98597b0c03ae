package simulation

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
)

// TradeStats summarizes the trade events of a simulation run. Realized
// profit/loss is computed per sell against a running average cost basis that
// includes buy-side commission.
type TradeStats struct {
	TotalTrades      int
	Buys             int
	Sells            int
	ProfitableTrades int
	LosingTrades     int
	WinRate          float64
	TotalProfit      decimal.Decimal
	TotalLoss        decimal.Decimal
	NetProfit        decimal.Decimal
	AverageProfit    float64
	AverageLoss      float64
	ProfitFactor     float64
	TotalCommission  decimal.Decimal
}

func NewTradeStats(events []eventmodels.SimulationEvent) TradeStats {
	s := TradeStats{
		TotalProfit:     decimal.Zero,
		TotalLoss:       decimal.Zero,
		NetProfit:       decimal.Zero,
		TotalCommission: decimal.Zero,
	}

	avgCost := decimal.Zero
	quantity := decimal.Zero

	var profits, losses []float64

	for _, event := range events {
		trade, ok := event.(*eventmodels.TradeEvent)
		if !ok {
			continue
		}

		s.TotalTrades++
		s.TotalCommission = s.TotalCommission.Add(trade.Commission)

		switch trade.Action {
		case eventmodels.TradeActionBuy:
			s.Buys++

			totalCost := trade.Value.Add(trade.Commission)
			newQuantity := quantity.Add(trade.Amount)
			avgCost = avgCost.Mul(quantity).Add(totalCost).Div(newQuantity)
			quantity = newQuantity

		case eventmodels.TradeActionSell:
			s.Sells++

			proceeds := trade.Value.Sub(trade.Commission)
			costBasis := avgCost.Mul(trade.Amount)
			profitLoss := proceeds.Sub(costBasis)

			plF, _ := profitLoss.Float64()
			if profitLoss.Sign() > 0 {
				s.ProfitableTrades++
				s.TotalProfit = s.TotalProfit.Add(profitLoss)
				profits = append(profits, plF)
			} else {
				s.LosingTrades++
				s.TotalLoss = s.TotalLoss.Add(profitLoss)
				losses = append(losses, plF)
			}

			quantity = quantity.Sub(trade.Amount)
			if quantity.Sign() <= 0 {
				quantity = decimal.Zero
				avgCost = decimal.Zero
			}
		}
	}

	s.NetProfit = s.TotalProfit.Add(s.TotalLoss)

	closedTrades := s.ProfitableTrades + s.LosingTrades
	if closedTrades > 0 {
		s.WinRate = float64(s.ProfitableTrades) / float64(closedTrades)
	}

	if len(profits) > 0 {
		s.AverageProfit, _ = stats.Mean(profits)
	}
	if len(losses) > 0 {
		s.AverageLoss, _ = stats.Mean(losses)
	}

	totalLossF, _ := s.TotalLoss.Float64()
	totalProfitF, _ := s.TotalProfit.Float64()
	if totalLossF != 0 {
		s.ProfitFactor = math.Abs(totalProfitF / totalLossF)
	} else if totalProfitF > 0 {
		s.ProfitFactor = math.Inf(1)
	}

	return s
}
