package eventservices

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
)

// ImportCandlesFromCsv loads an OHLCV candle file with columns
// time,open,high,low,close,volume. The result is sorted by timestamp but not
// otherwise validated; callers run the series through the engine's window
// checks.
func ImportCandlesFromCsv(filePath string) ([]*eventmodels.Candle, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("ImportCandlesFromCsv: error opening file: %w", err)
	}
	defer f.Close()

	var dtos []*eventmodels.CandleDTO
	if err := gocsv.UnmarshalFile(f, &dtos); err != nil {
		return nil, fmt.Errorf("ImportCandlesFromCsv: error unmarshalling %s: %w", filePath, err)
	}

	candles := make([]*eventmodels.Candle, 0, len(dtos))
	for i, dto := range dtos {
		c, err := dto.ToModel()
		if err != nil {
			return nil, fmt.Errorf("ImportCandlesFromCsv: row %d: %w", i, err)
		}

		candles = append(candles, c)
	}

	eventmodels.SortCandles(candles)

	return candles, nil
}
