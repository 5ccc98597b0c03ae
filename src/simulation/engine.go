package simulation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
	"github.com/jiaming2012/trading-simulator/src/eventpubsub"
	"github.com/jiaming2012/trading-simulator/src/portfolio"
	"github.com/jiaming2012/trading-simulator/src/risk"
)

// Strategy turns the current bar, a ledger snapshot and the simulation time
// into a trading decision. A nil decision is treated as hold.
type Strategy interface {
	Name() string
	GenerateDecision(candle *eventmodels.Candle, snapshot portfolio.Snapshot, t time.Time) *eventmodels.TradeDecision
}

type EngineState string

const (
	EngineStateNotStarted EngineState = "not_started"
	EngineStateRunning    EngineState = "running"
	EngineStateFinished   EngineState = "finished"
)

// Config carries the construction parameters for an Engine. RiskManager and
// TrailingStop are optional collaborators; leaving them nil disables the
// corresponding checks.
type Config struct {
	Symbol         string
	InitialBalance decimal.Decimal
	CommissionRate decimal.Decimal
	StartTime      *time.Time
	EndTime        *time.Time
	RiskManager    *risk.PortfolioRiskManager
	TrailingStop   *risk.TrailingStop
	Bus            *eventpubsub.PubSub
}

// Engine replays a historical candle series as a deterministic, single-owner
// fold: no goroutines, no shared state, and an append-only event log that is
// the sole source of truth for result reconstruction.
type Engine struct {
	symbol         string
	candles        []*eventmodels.Candle
	commissionRate decimal.Decimal
	portfolio      *portfolio.Portfolio
	riskManager    *risk.PortfolioRiskManager
	trailingStop   *risk.TrailingStop
	bus            *eventpubsub.PubSub

	state          EngineState
	currentIndex   int
	events         []eventmodels.SimulationEvent
	rejectedTrades int
	volatility     float64
	openStopID     *uuid.UUID
}

// reinvestFraction is the share of free cash a buy without an explicit amount
// commits, leaving headroom for commission.
var reinvestFraction = decimal.RequireFromString("0.95")

// NewEngine validates and filters the candle series against the configured
// window. An empty window is a fatal configuration error, reported here
// rather than deferred to the first Step.
func NewEngine(candles []*eventmodels.Candle, cfg Config) (*Engine, error) {
	sorted := make([]*eventmodels.Candle, len(candles))
	copy(sorted, candles)
	eventmodels.SortCandles(sorted)

	if err := eventmodels.ValidateCandles(sorted); err != nil {
		return nil, fmt.Errorf("NewEngine: invalid candle series: %w", err)
	}

	filtered := eventmodels.FilterCandles(sorted, cfg.StartTime, cfg.EndTime)
	if len(filtered) == 0 {
		return nil, fmt.Errorf("NewEngine: %w", eventmodels.ErrEmptySimulationData)
	}

	symbol := cfg.Symbol
	if symbol == "" {
		symbol = "BTC-USD"
	}

	e := &Engine{
		symbol:         symbol,
		candles:        filtered,
		commissionRate: cfg.CommissionRate,
		portfolio:      portfolio.NewPortfolio(cfg.InitialBalance),
		riskManager:    cfg.RiskManager,
		trailingStop:   cfg.TrailingStop,
		bus:            cfg.Bus,
	}

	if e.riskManager != nil {
		closes := make([]float64, 0, len(filtered))
		for _, c := range filtered {
			closes = append(closes, c.Close)
		}

		volatility, err := risk.ReturnsVolatility(closes)
		if err != nil {
			return nil, fmt.Errorf("NewEngine: failed to derive volatility for risk checks: %w", err)
		}

		e.volatility = volatility
	}

	e.Reset()

	log.Infof("NewEngine: initial balance %s, window %s - %s (%d candles)", cfg.InitialBalance, filtered[0].Timestamp, filtered[len(filtered)-1].Timestamp, len(filtered))

	return e, nil
}

func (e *Engine) State() EngineState {
	return e.state
}

func (e *Engine) CurrentCandle() *eventmodels.Candle {
	return e.candles[e.currentIndex]
}

func (e *Engine) CurrentTime() time.Time {
	return e.CurrentCandle().Timestamp
}

func (e *Engine) Portfolio() portfolio.Snapshot {
	return e.portfolio.Snapshot()
}

// Events returns the append-only event log.
func (e *Engine) Events() []eventmodels.SimulationEvent {
	return e.events
}

func (e *Engine) RejectedTrades() int {
	return e.rejectedTrades
}

func (e *Engine) currentPrice() decimal.Decimal {
	return decimal.NewFromFloat(e.CurrentCandle().Close)
}

// Reset restores the replay to the first bar, clears the ledger and the event
// log, and records the opening portfolio valuation so the result table spans
// the whole window.
func (e *Engine) Reset() {
	e.currentIndex = 0
	e.state = EngineStateNotStarted
	e.events = nil
	e.rejectedTrades = 0
	e.portfolio.Reset()

	if e.trailingStop != nil && e.openStopID != nil {
		e.trailingStop.RemovePosition(*e.openStopID)
	}
	e.openStopID = nil

	e.recordPortfolioUpdate()
}

// Step advances the replay by one bar. It returns false once the last bar has
// been reached; on every successful advance it applies trailing-stop exits,
// revalues the ledger at the new close, and appends a portfolio_update event.
func (e *Engine) Step() bool {
	if e.currentIndex >= len(e.candles)-1 {
		e.state = EngineStateFinished
		log.Info("Step: simulation finished")
		return false
	}

	e.currentIndex++
	e.state = EngineStateRunning

	e.applyTrailingStop()
	e.recordPortfolioUpdate()

	return true
}

// applyTrailingStop updates the open stop with the new close and forces a
// full exit when it triggers.
func (e *Engine) applyTrailingStop() {
	if e.trailingStop == nil || e.openStopID == nil {
		return
	}

	id := *e.openStopID
	price := e.currentPrice()

	if _, err := e.trailingStop.UpdatePosition(id, price); err != nil {
		log.Errorf("applyTrailingStop: update failed: %v", err)
		return
	}

	triggered, err := e.trailingStop.CheckStopTriggered(id, price)
	if err != nil {
		log.Errorf("applyTrailingStop: check failed: %v", err)
		return
	}

	if !triggered {
		return
	}

	log.Infof("applyTrailingStop: stop triggered at %s, closing position", price)

	if err := e.ExecuteTrade(eventmodels.NewTradeDecision(eventmodels.TradeActionSell)); err != nil {
		log.Errorf("applyTrailingStop: forced exit failed: %v", err)
	}
}

// ExecuteTrade resolves the decision's price and amount, delegates to the
// ledger, and appends a trade event with pre/post snapshots. A rejected trade
// leaves both the ledger and the event log untouched.
func (e *Engine) ExecuteTrade(decision *eventmodels.TradeDecision) error {
	if decision == nil {
		return fmt.Errorf("ExecuteTrade: no decision given")
	}

	price := e.currentPrice()
	if decision.Price != nil {
		price = *decision.Price
	}

	switch decision.Action {
	case eventmodels.TradeActionBuy:
		return e.executeBuy(decision, price)
	case eventmodels.TradeActionSell:
		return e.executeSell(decision, price)
	default:
		return fmt.Errorf("ExecuteTrade: unsupported action %s", decision.Action)
	}
}

func (e *Engine) executeBuy(decision *eventmodels.TradeDecision, price decimal.Decimal) error {
	var amount decimal.Decimal
	if decision.Amount != nil {
		amount = *decision.Amount
	} else {
		amount = e.portfolio.Balance().Mul(reinvestFraction).Div(price)
	}

	if e.riskManager != nil {
		portfolioValue, _ := e.portfolio.TotalValue().Float64()
		priceF, _ := price.Float64()

		maxSize := e.riskManager.MaxPositionSize(e.symbol, priceF, e.volatility, portfolioValue, e.openRiskPositions(portfolioValue))
		limit := decimal.NewFromFloat(maxSize)
		if amount.GreaterThan(limit) {
			log.Infof("executeBuy: amount %s capped at risk limit %s", amount, limit)
			amount = limit
		}
	}

	before := e.portfolio.Snapshot()

	if err := e.portfolio.Buy(amount, price, e.commissionRate); err != nil {
		e.rejectedTrades++
		log.Warnf("executeBuy: rejected: %v", err)
		return fmt.Errorf("executeBuy: %w", err)
	}

	if e.trailingStop != nil && e.openStopID == nil {
		id := uuid.New()
		e.trailingStop.AddPosition(id, price, risk.PositionSideLong, decision.StopLoss)
		e.openStopID = &id
	}

	e.recordTrade(eventmodels.TradeActionBuy, amount, price, before)

	log.Infof("executeBuy: bought %s at %s, value: %s, commission: %s", amount, price, amount.Mul(price), amount.Mul(price).Mul(e.commissionRate))

	return nil
}

func (e *Engine) executeSell(decision *eventmodels.TradeDecision, price decimal.Decimal) error {
	var amount decimal.Decimal
	if decision.Amount != nil {
		amount = *decision.Amount
	} else {
		amount = e.portfolio.AssetAmount()
	}

	before := e.portfolio.Snapshot()

	if err := e.portfolio.Sell(amount, price, e.commissionRate); err != nil {
		e.rejectedTrades++
		log.Warnf("executeSell: rejected: %v", err)
		return fmt.Errorf("executeSell: %w", err)
	}

	if e.trailingStop != nil && e.openStopID != nil && e.portfolio.AssetAmount().IsZero() {
		e.trailingStop.RemovePosition(*e.openStopID)
		e.openStopID = nil
	}

	e.recordTrade(eventmodels.TradeActionSell, amount, price, before)

	log.Infof("executeSell: sold %s at %s, value: %s, commission: %s", amount, price, amount.Mul(price), amount.Mul(price).Mul(e.commissionRate))

	return nil
}

// openRiskPositions expresses the current holding as the risk manager's
// per-instrument bookkeeping.
func (e *Engine) openRiskPositions(portfolioValue float64) map[string]risk.RiskPosition {
	if e.portfolio.AssetAmount().IsZero() || portfolioValue <= 0 {
		return nil
	}

	assetValue, _ := e.portfolio.AssetValue().Float64()
	exposure := assetValue / portfolioValue

	return map[string]risk.RiskPosition{
		e.symbol: {
			Symbol:   e.symbol,
			Risk:     exposure * (e.volatility / 100),
			Exposure: exposure,
		},
	}
}

func (e *Engine) recordTrade(action eventmodels.TradeAction, amount, price decimal.Decimal, before portfolio.Snapshot) {
	value := amount.Mul(price)

	event := &eventmodels.TradeEvent{
		Header:            eventmodels.NewEventHeader(e.CurrentTime()),
		Action:            action,
		Amount:            amount,
		Price:             price,
		Value:             value,
		Commission:        value.Mul(e.commissionRate),
		BalanceBefore:     before.Balance,
		AssetAmountBefore: before.AssetAmount,
		TotalValueBefore:  before.TotalValue,
		BalanceAfter:      e.portfolio.Balance(),
		AssetAmountAfter:  e.portfolio.AssetAmount(),
		TotalValueAfter:   e.portfolio.TotalValue(),
	}

	e.events = append(e.events, event)

	if e.bus != nil {
		e.bus.Publish(eventpubsub.TradeEventTopic, event)
	}
}

func (e *Engine) recordPortfolioUpdate() {
	e.portfolio.Revalue(e.currentPrice())

	event := &eventmodels.PortfolioUpdateEvent{
		Header:      eventmodels.NewEventHeader(e.CurrentTime()),
		Balance:     e.portfolio.Balance(),
		AssetAmount: e.portfolio.AssetAmount(),
		AssetValue:  e.portfolio.AssetValue(),
		TotalValue:  e.portfolio.TotalValue(),
	}

	e.events = append(e.events, event)

	if e.bus != nil {
		e.bus.Publish(eventpubsub.PortfolioUpdateEventTopic, event)
	}
}

// RunFullSimulation resets the engine and folds the strategy over every bar.
// Rejected trades are logged and counted; they never abort the replay.
func (e *Engine) RunFullSimulation(strategy Strategy) (*ResultSet, error) {
	log.Infof("RunFullSimulation: strategy %s", strategy.Name())

	e.Reset()

	for {
		decision := strategy.GenerateDecision(e.CurrentCandle(), e.portfolio.Snapshot(), e.CurrentTime())

		if decision != nil && decision.Action != eventmodels.TradeActionHold {
			if err := e.ExecuteTrade(decision); err != nil {
				log.Warnf("RunFullSimulation: trade not executed: %v", err)
			}
		}

		if !e.Step() {
			break
		}
	}

	return e.Results()
}
