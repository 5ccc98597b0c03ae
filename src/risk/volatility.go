package risk

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// ReturnsVolatility computes the standard deviation of percentage returns for
// a price series, expressed as a percentage figure suitable for PositionRisk
// and MaxPositionSize.
func ReturnsVolatility(prices []float64) (float64, error) {
	if len(prices) < 2 {
		return 0, fmt.Errorf("ReturnsVolatility: need at least 2 prices, got %d", len(prices))
	}

	sd, err := stats.StandardDeviation(percentChange(prices))
	if err != nil {
		return 0, fmt.Errorf("ReturnsVolatility: failed to calculate standard deviation: %w", err)
	}

	return sd * 100, nil
}
