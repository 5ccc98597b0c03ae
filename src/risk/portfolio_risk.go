package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	log "github.com/sirupsen/logrus"
)

// RiskPosition is the per-instrument bookkeeping the caller supplies when
// asking for portfolio-level risk figures. Risk and Exposure are fractions of
// portfolio value in [0, 1].
type RiskPosition struct {
	Symbol   string
	Risk     float64
	Exposure float64
}

// PortfolioRiskManager bounds position sizes using per-instrument volatility
// and pairwise return correlation. Risk figures are fractions, not money, so
// they stay in binary floats; conversion to decimal happens at the trade
// boundary.
type PortfolioRiskManager struct {
	MaxPortfolioRisk      float64
	MaxInstrumentRisk     float64
	MaxCorrelatedExposure float64
	CorrelationThreshold  float64

	correlationMatrix map[string]map[string]float64
}

func NewPortfolioRiskManager(maxPortfolioRisk, maxInstrumentRisk, maxCorrelatedExposure, correlationThreshold float64) *PortfolioRiskManager {
	log.Infof("NewPortfolioRiskManager: max_portfolio_risk=%v, max_instrument_risk=%v", maxPortfolioRisk, maxInstrumentRisk)

	return &PortfolioRiskManager{
		MaxPortfolioRisk:      maxPortfolioRisk,
		MaxInstrumentRisk:     maxInstrumentRisk,
		MaxCorrelatedExposure: maxCorrelatedExposure,
		CorrelationThreshold:  correlationThreshold,
		correlationMatrix:     make(map[string]map[string]float64),
	}
}

// UpdateCorrelationMatrix derives percentage returns per instrument and
// replaces the stored pairwise Pearson correlations wholesale. All series
// must have the same length.
func (m *PortfolioRiskManager) UpdateCorrelationMatrix(priceHistory map[string][]float64) error {
	returns := make(map[string][]float64, len(priceHistory))
	for symbol, prices := range priceHistory {
		if len(prices) < 2 {
			return fmt.Errorf("UpdateCorrelationMatrix: symbol %s needs at least 2 prices, got %d", symbol, len(prices))
		}

		returns[symbol] = percentChange(prices)
	}

	symbols := make([]string, 0, len(returns))
	for symbol := range returns {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	matrix := make(map[string]map[string]float64, len(symbols))
	for _, sym1 := range symbols {
		matrix[sym1] = make(map[string]float64, len(symbols))
		for _, sym2 := range symbols {
			corr, err := stats.Pearson(returns[sym1], returns[sym2])
			if err != nil {
				return fmt.Errorf("UpdateCorrelationMatrix: correlation %s/%s: %w", sym1, sym2, err)
			}

			matrix[sym1][sym2] = corr
		}
	}

	m.correlationMatrix = matrix

	log.Debugf("UpdateCorrelationMatrix: %d instruments", len(matrix))

	return nil
}

// Correlation returns the stored correlation between two symbols, or false
// when either is missing from the matrix.
func (m *PortfolioRiskManager) Correlation(sym1, sym2 string) (float64, bool) {
	row, found := m.correlationMatrix[sym1]
	if !found {
		return 0, false
	}

	corr, found := row[sym2]
	return corr, found
}

// PositionRisk is (amount*price / portfolioValue) * (volatility/100), the
// fraction of portfolio value a position puts at risk. Volatility is a
// percentage figure (e.g. 4.5 for 4.5%).
func (m *PortfolioRiskManager) PositionRisk(price, amount, volatility, portfolioValue float64) float64 {
	positionValue := price * amount
	return (positionValue / portfolioValue) * (volatility / 100)
}

// PortfolioRisk aggregates individual position risks. Without correlation
// data it falls back to the plain sum, which conservatively assumes perfect
// correlation; otherwise it sums the risk covariance risk_i*risk_j*corr(i,j)
// over all pairs and takes the square root.
func (m *PortfolioRiskManager) PortfolioRisk(positions map[string]RiskPosition) float64 {
	if len(positions) == 0 {
		return 0
	}

	symbols := make([]string, 0, len(positions))
	for symbol := range positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	if len(m.correlationMatrix) == 0 {
		var totalRisk float64
		for _, symbol := range symbols {
			totalRisk += positions[symbol].Risk
		}

		return totalRisk
	}

	var covarianceSum float64
	for i, sym1 := range symbols {
		for j, sym2 := range symbols {
			if corr, found := m.Correlation(sym1, sym2); found {
				covarianceSum += positions[sym1].Risk * positions[sym2].Risk * corr
			} else if i == j {
				covarianceSum += positions[sym1].Risk * positions[sym1].Risk
			}
		}
	}

	return math.Sqrt(covarianceSum)
}

// CorrelatedExposure sums the exposure of every other open position whose
// absolute correlation with symbol meets the configured threshold.
func (m *PortfolioRiskManager) CorrelatedExposure(symbol string, positions map[string]RiskPosition) float64 {
	if _, found := m.correlationMatrix[symbol]; !found || len(positions) == 0 {
		return 0
	}

	symbols := make([]string, 0, len(positions))
	for other := range positions {
		symbols = append(symbols, other)
	}
	sort.Strings(symbols)

	var correlatedExposure float64
	for _, other := range symbols {
		if other == symbol {
			continue
		}

		corr, found := m.Correlation(symbol, other)
		if !found {
			continue
		}

		if math.Abs(corr) >= m.CorrelationThreshold {
			correlatedExposure += positions[other].Exposure
		}
	}

	return correlatedExposure
}

// MaxPositionSize returns the largest quantity of symbol that stays inside
// all three limits: per-instrument risk, correlated exposure, and remaining
// portfolio risk. Any single binding constraint dominates; the result is
// floored at zero.
func (m *PortfolioRiskManager) MaxPositionSize(symbol string, price, volatility, portfolioValue float64, positions map[string]RiskPosition) float64 {
	currentPortfolioRisk := m.PortfolioRisk(positions)
	availableRisk := m.MaxPortfolioRisk - currentPortfolioRisk

	riskPerUnit := price * (volatility / 100)

	instrumentLimit := math.Inf(1)
	portfolioLimit := math.Inf(1)
	if riskPerUnit > 0 {
		instrumentLimit = (m.MaxInstrumentRisk * portfolioValue) / riskPerUnit
		portfolioLimit = (availableRisk * portfolioValue) / riskPerUnit
	}

	correlatedExposure := m.CorrelatedExposure(symbol, positions)
	exposureLimit := (m.MaxCorrelatedExposure - correlatedExposure) * portfolioValue
	correlatedLimit := exposureLimit / price

	maxPosition := math.Min(instrumentLimit, math.Min(correlatedLimit, portfolioLimit))

	log.Debugf("MaxPositionSize: %s max=%v, limits: instr=%v, corr=%v, port=%v", symbol, maxPosition, instrumentLimit, correlatedLimit, portfolioLimit)

	return math.Max(0, maxPosition)
}

func percentChange(prices []float64) []float64 {
	changes := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		changes = append(changes, (prices[i]-prices[i-1])/prices[i-1])
	}

	return changes
}
