package risk

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
)

type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// StopPosition is the tracking state for one open position. Once trailing is
// active the stop only moves in the trade's favor: it never retreats.
type StopPosition struct {
	EntryPrice       decimal.Decimal
	Side             PositionSide
	CurrentStop      decimal.Decimal
	ActivationPrice  decimal.Decimal
	HighestPrice     decimal.Decimal
	LowestPrice      decimal.Decimal
	IsTrailingActive bool
}

// TrailingStop tracks dynamic stop-loss levels for open positions, keyed by an
// opaque position id supplied by the caller.
type TrailingStop struct {
	initialStopPct decimal.Decimal
	activationPct  decimal.Decimal
	stepPct        decimal.Decimal
	positions      map[uuid.UUID]*StopPosition
}

func NewTrailingStop(initialStopPct, activationPct, stepPct decimal.Decimal) *TrailingStop {
	log.Infof("NewTrailingStop: initial_stop_pct=%s, activation_pct=%s, step_pct=%s", initialStopPct, activationPct, stepPct)

	return &TrailingStop{
		initialStopPct: initialStopPct,
		activationPct:  activationPct,
		stepPct:        stepPct,
		positions:      make(map[uuid.UUID]*StopPosition),
	}
}

// AddPosition registers a new position and returns its initial stop price. A
// nil initialStop derives the stop from the configured initial percentage.
func (ts *TrailingStop) AddPosition(id uuid.UUID, entryPrice decimal.Decimal, side PositionSide, initialStop *decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)

	var stopPrice decimal.Decimal
	if initialStop != nil {
		stopPrice = *initialStop
	} else if side == PositionSideLong {
		stopPrice = entryPrice.Mul(one.Sub(ts.initialStopPct))
	} else {
		stopPrice = entryPrice.Mul(one.Add(ts.initialStopPct))
	}

	var activationPrice decimal.Decimal
	if side == PositionSideLong {
		activationPrice = entryPrice.Mul(one.Add(ts.activationPct))
	} else {
		activationPrice = entryPrice.Mul(one.Sub(ts.activationPct))
	}

	position := &StopPosition{
		EntryPrice:      entryPrice,
		Side:            side,
		CurrentStop:     stopPrice,
		ActivationPrice: activationPrice,
	}

	if side == PositionSideLong {
		position.HighestPrice = entryPrice
	} else {
		position.LowestPrice = entryPrice
	}

	ts.positions[id] = position

	log.Infof("AddPosition: %s entry_price=%s, stop_price=%s, activation_price=%s", id, entryPrice, stopPrice, activationPrice)

	return stopPrice
}

// UpdatePosition advances the running price extreme, activates trailing once
// the activation price is crossed favorably, and ratchets the stop toward the
// extreme. Returns the current stop.
func (ts *TrailingStop) UpdatePosition(id uuid.UUID, currentPrice decimal.Decimal) (decimal.Decimal, error) {
	position, found := ts.positions[id]
	if !found {
		return decimal.Zero, fmt.Errorf("UpdatePosition: %s: %w", id, eventmodels.ErrUnknownPosition)
	}

	one := decimal.NewFromInt(1)

	if position.Side == PositionSideLong {
		if currentPrice.GreaterThan(position.HighestPrice) {
			position.HighestPrice = currentPrice
		}
	} else {
		if currentPrice.LessThan(position.LowestPrice) {
			position.LowestPrice = currentPrice
		}
	}

	if !position.IsTrailingActive {
		if (position.Side == PositionSideLong && currentPrice.GreaterThanOrEqual(position.ActivationPrice)) ||
			(position.Side == PositionSideShort && currentPrice.LessThanOrEqual(position.ActivationPrice)) {
			position.IsTrailingActive = true
			log.Infof("UpdatePosition: trailing activated for %s: current_price=%s, activation_price=%s", id, currentPrice, position.ActivationPrice)
		}
	}

	if position.IsTrailingActive {
		if position.Side == PositionSideLong {
			newStop := position.HighestPrice.Mul(one.Sub(ts.stepPct))
			if newStop.GreaterThan(position.CurrentStop) {
				position.CurrentStop = newStop
				log.Debugf("UpdatePosition: stop raised for %s: new_stop=%s", id, newStop)
			}
		} else {
			newStop := position.LowestPrice.Mul(one.Add(ts.stepPct))
			if newStop.LessThan(position.CurrentStop) {
				position.CurrentStop = newStop
				log.Debugf("UpdatePosition: stop lowered for %s: new_stop=%s", id, newStop)
			}
		}
	}

	return position.CurrentStop, nil
}

// CheckStopTriggered reports whether the stop has been hit: a long triggers at
// or below the stop, a short at or above it.
func (ts *TrailingStop) CheckStopTriggered(id uuid.UUID, currentPrice decimal.Decimal) (bool, error) {
	position, found := ts.positions[id]
	if !found {
		return false, fmt.Errorf("CheckStopTriggered: %s: %w", id, eventmodels.ErrUnknownPosition)
	}

	if position.Side == PositionSideLong {
		if currentPrice.LessThanOrEqual(position.CurrentStop) {
			log.Infof("CheckStopTriggered: stop hit for %s: current_price=%s, stop_price=%s", id, currentPrice, position.CurrentStop)
			return true, nil
		}

		return false, nil
	}

	if currentPrice.GreaterThanOrEqual(position.CurrentStop) {
		log.Infof("CheckStopTriggered: stop hit for %s: current_price=%s, stop_price=%s", id, currentPrice, position.CurrentStop)
		return true, nil
	}

	return false, nil
}

// RemovePosition deletes the tracking state and returns the final snapshot,
// or false if the id was never registered.
func (ts *TrailingStop) RemovePosition(id uuid.UUID) (*StopPosition, bool) {
	position, found := ts.positions[id]
	if !found {
		return nil, false
	}

	delete(ts.positions, id)

	log.Infof("RemovePosition: %s removed from trailing stop tracking", id)

	return position, true
}

func (ts *TrailingStop) OpenPositionCount() int {
	return len(ts.positions)
}
