package simulation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
)

// ResultRow is one time point of the reconstructed result table: the ledger
// state joined with the source price at that bar.
type ResultRow struct {
	Time        time.Time
	Balance     decimal.Decimal
	AssetAmount decimal.Decimal
	AssetValue  decimal.Decimal
	TotalValue  decimal.Decimal
	Price       float64
}

// ResultSet is reconstructed purely from the engine's event log.
type ResultSet struct {
	Rows []ResultRow

	InitialValue  decimal.Decimal
	FinalValue    decimal.Decimal
	TotalReturn   decimal.Decimal
	BuyHoldReturn decimal.Decimal
	ExcessReturn  decimal.Decimal

	Stats TradeStats
}

// Results builds the time-indexed result table from the portfolio_update
// events joined with the source price series, and computes the summary
// returns.
func (e *Engine) Results() (*ResultSet, error) {
	priceByTime := make(map[time.Time]float64, len(e.candles))
	for _, c := range e.candles {
		priceByTime[c.Timestamp] = c.Close
	}

	var rows []ResultRow
	for _, event := range e.events {
		update, ok := event.(*eventmodels.PortfolioUpdateEvent)
		if !ok {
			continue
		}

		price, found := priceByTime[update.Header.SimulationTime]
		if !found {
			return nil, fmt.Errorf("Results: no price for simulation time %s", update.Header.SimulationTime)
		}

		rows = append(rows, ResultRow{
			Time:        update.Header.SimulationTime,
			Balance:     update.Balance,
			AssetAmount: update.AssetAmount,
			AssetValue:  update.AssetValue,
			TotalValue:  update.TotalValue,
			Price:       price,
		})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("Results: no portfolio updates recorded")
	}

	one := decimal.NewFromInt(1)

	initialValue := rows[0].TotalValue
	finalValue := rows[len(rows)-1].TotalValue
	totalReturn := finalValue.Div(initialValue).Sub(one)

	initialPrice := decimal.NewFromFloat(e.candles[0].Close)
	finalPrice := decimal.NewFromFloat(e.candles[len(e.candles)-1].Close)
	buyHoldReturn := finalPrice.Div(initialPrice).Sub(one)

	results := &ResultSet{
		Rows:          rows,
		InitialValue:  initialValue,
		FinalValue:    finalValue,
		TotalReturn:   totalReturn,
		BuyHoldReturn: buyHoldReturn,
		ExcessReturn:  totalReturn.Sub(buyHoldReturn),
		Stats:         NewTradeStats(e.events),
	}

	log.Infof("Results: initial value = %s, final value = %s, return = %s%%, buy & hold return = %s%%, excess return = %s%%",
		initialValue, finalValue,
		totalReturn.Mul(decimal.NewFromInt(100)).StringFixed(2),
		buyHoldReturn.Mul(decimal.NewFromInt(100)).StringFixed(2),
		results.ExcessReturn.Mul(decimal.NewFromInt(100)).StringFixed(2))

	return results, nil
}
