package risk

import (
	"math"

	log "github.com/sirupsen/logrus"
)

// PositionSizer converts a portfolio value and a stop distance into a trade
// quantity, scaling risk with signal strength.
type PositionSizer struct {
	RiskPerTrade          float64
	MaxRiskMultiplier     float64
	StopLossATRMultiplier float64
	TakeProfitRiskRatio   float64
}

func NewPositionSizer() *PositionSizer {
	return &PositionSizer{
		RiskPerTrade:          0.02,
		MaxRiskMultiplier:     3.0,
		StopLossATRMultiplier: 2.0,
		TakeProfitRiskRatio:   2.0,
	}
}

// PositionSize sizes a trade so that being stopped out loses roughly
// RiskPerTrade of the portfolio, scaled by signalStrength in [0, 1]. When the
// stop sits on the entry price a default 2% distance is assumed.
func (s *PositionSizer) PositionSize(portfolioValue, entryPrice, stopLossPrice, signalStrength float64) float64 {
	riskMultiplier := 1.0 + (s.MaxRiskMultiplier-1.0)*signalStrength
	riskAmount := portfolioValue * s.RiskPerTrade * riskMultiplier

	priceDifference := math.Abs(entryPrice - stopLossPrice)
	if priceDifference == 0 {
		log.Warnf("PositionSize: entry price equals stop-loss price, assuming 2%% stop distance")
		priceDifference = entryPrice * 0.02
	}

	positionSize := riskAmount / priceDifference
	amount := positionSize / entryPrice

	log.Infof("PositionSize: %v units (risk amount: %.2f)", amount, riskAmount)

	return amount
}

// StopLossTakeProfit derives stop-loss and take-profit prices for an entry.
// The stop percentage comes from customSLPct when given, otherwise from the
// ATR when available, otherwise a 5% default; take-profit is proportional via
// TakeProfitRiskRatio unless customTPPct overrides it.
func (s *PositionSizer) StopLossTakeProfit(entryPrice float64, side PositionSide, atr, customSLPct, customTPPct *float64) (stopLoss, takeProfit float64) {
	var slPct float64
	if customSLPct != nil {
		slPct = *customSLPct
	} else if atr != nil && *atr > 0 {
		slPct = (*atr * s.StopLossATRMultiplier) / entryPrice
	} else {
		slPct = 0.05
	}

	var tpPct float64
	if customTPPct != nil {
		tpPct = *customTPPct
	} else {
		tpPct = slPct * s.TakeProfitRiskRatio
	}

	if side == PositionSideLong {
		stopLoss = entryPrice * (1 - slPct)
		takeProfit = entryPrice * (1 + tpPct)
	} else {
		stopLoss = entryPrice * (1 + slPct)
		takeProfit = entryPrice * (1 - tpPct)
	}

	log.Infof("StopLossTakeProfit: %s entry=%.2f, stop-loss=%.2f (%.2f%%), take-profit=%.2f (%.2f%%)", side, entryPrice, stopLoss, slPct*100, takeProfit, tpPct*100)

	return stopLoss, takeProfit
}
