package eventmodels

import "github.com/shopspring/decimal"

type TradeAction string

const (
	TradeActionBuy  TradeAction = "buy"
	TradeActionSell TradeAction = "sell"
	TradeActionHold TradeAction = "hold"
)

// TradeDecision is the value object produced by a strategy for a single bar.
// Optional fields left nil fall back to engine defaults: the current bar close
// for Price, 95% of free cash for a buy Amount, the full holding for a sell.
type TradeDecision struct {
	Action     TradeAction
	Amount     *decimal.Decimal
	Price      *decimal.Decimal
	StopLoss   *decimal.Decimal
	TakeProfit *decimal.Decimal
}

func NewTradeDecision(action TradeAction) *TradeDecision {
	return &TradeDecision{Action: action}
}
