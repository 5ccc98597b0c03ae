package portfolio

import (
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
)

// Portfolio is the cash/asset ledger for a single simulation. All monetary
// fields use fixed-precision decimals so repeated buy/sell/revalue cycles
// never accumulate binary rounding drift.
type Portfolio struct {
	initialBalance decimal.Decimal
	balance        decimal.Decimal
	assetAmount    decimal.Decimal
	assetValue     decimal.Decimal
	totalValue     decimal.Decimal
}

// Snapshot is an immutable copy of the ledger state, safe to hand to
// strategies and event payloads.
type Snapshot struct {
	InitialBalance decimal.Decimal
	Balance        decimal.Decimal
	AssetAmount    decimal.Decimal
	AssetValue     decimal.Decimal
	TotalValue     decimal.Decimal
}

func NewPortfolio(initialBalance decimal.Decimal) *Portfolio {
	return &Portfolio{
		initialBalance: initialBalance,
		balance:        initialBalance,
		assetAmount:    decimal.Zero,
		assetValue:     decimal.Zero,
		totalValue:     initialBalance,
	}
}

func (p *Portfolio) InitialBalance() decimal.Decimal {
	return p.initialBalance
}

func (p *Portfolio) Balance() decimal.Decimal {
	return p.balance
}

func (p *Portfolio) AssetAmount() decimal.Decimal {
	return p.assetAmount
}

func (p *Portfolio) AssetValue() decimal.Decimal {
	return p.assetValue
}

func (p *Portfolio) TotalValue() decimal.Decimal {
	return p.totalValue
}

func (p *Portfolio) Snapshot() Snapshot {
	return Snapshot{
		InitialBalance: p.initialBalance,
		Balance:        p.balance,
		AssetAmount:    p.assetAmount,
		AssetValue:     p.assetValue,
		TotalValue:     p.totalValue,
	}
}

// Reset restores the ledger to its initial state, used between simulation
// runs against the same data.
func (p *Portfolio) Reset() {
	p.balance = p.initialBalance
	p.assetAmount = decimal.Zero
	p.assetValue = decimal.Zero
	p.totalValue = p.initialBalance
}

// Revalue recomputes the asset value and total value against the supplied
// price. It touches nothing else and may be called any number of times.
func (p *Portfolio) Revalue(price decimal.Decimal) {
	p.assetValue = p.assetAmount.Mul(price)
	p.totalValue = p.balance.Add(p.assetValue)
}

// Buy debits cash by amount*price*(1+commissionRate) and credits the asset
// holding. The ledger is left untouched when funds are insufficient.
func (p *Portfolio) Buy(amount, price, commissionRate decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return eventmodels.ErrInvalidTradeVolume
	}

	tradeValue := amount.Mul(price)
	commission := tradeValue.Mul(commissionRate)
	totalCost := tradeValue.Add(commission)

	if totalCost.GreaterThan(p.balance) {
		log.Warnf("Buy: cost %s exceeds balance %s", totalCost, p.balance)
		return eventmodels.ErrInsufficientFunds
	}

	p.balance = p.balance.Sub(totalCost)
	p.assetAmount = p.assetAmount.Add(amount)
	p.Revalue(price)

	return nil
}

// Sell credits cash by amount*price*(1-commissionRate) and debits the asset
// holding. The ledger is left untouched when the holding is insufficient.
func (p *Portfolio) Sell(amount, price, commissionRate decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return eventmodels.ErrInvalidTradeVolume
	}

	if amount.GreaterThan(p.assetAmount) {
		log.Warnf("Sell: amount %s exceeds holding %s", amount, p.assetAmount)
		return eventmodels.ErrInsufficientAsset
	}

	tradeValue := amount.Mul(price)
	commission := tradeValue.Mul(commissionRate)
	netValue := tradeValue.Sub(commission)

	p.balance = p.balance.Add(netValue)
	p.assetAmount = p.assetAmount.Sub(amount)
	p.Revalue(price)

	return nil
}
