package eventmodels

import (
	"fmt"
	"sort"
	"time"
)

type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func NewCandle(timestamp time.Time, open, high, low, close, volume float64) *Candle {
	return &Candle{
		Timestamp: timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}

// SortCandles orders candles by ascending timestamp, in place.
func SortCandles(candles []*Candle) {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
}

// ValidateCandles checks that candles are strictly ascending in time. Duplicate
// timestamps indicate a corrupt feed and are rejected.
func ValidateCandles(candles []*Candle) error {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return fmt.Errorf("ValidateCandles: candle %d (%s) does not advance past candle %d (%s)", i, candles[i].Timestamp, i-1, candles[i-1].Timestamp)
		}
	}

	return nil
}

// FilterCandles returns the candles inside the [start, end] window. A nil bound
// leaves that side of the window open.
func FilterCandles(candles []*Candle, start, end *time.Time) []*Candle {
	filtered := make([]*Candle, 0, len(candles))
	for _, c := range candles {
		if start != nil && c.Timestamp.Before(*start) {
			continue
		}

		if end != nil && c.Timestamp.After(*end) {
			continue
		}

		filtered = append(filtered, c)
	}

	return filtered
}
