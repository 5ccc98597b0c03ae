package eventmodels

import "fmt"

var (
	ErrInsufficientFunds   = fmt.Errorf("insufficient funds to cover trade cost")
	ErrInsufficientAsset   = fmt.Errorf("insufficient asset amount to sell")
	ErrInvalidTradeVolume  = fmt.Errorf("trade volume must be positive")
	ErrUnknownPosition     = fmt.Errorf("position id is not tracked")
	ErrEmptySimulationData = fmt.Errorf("no candles in the requested simulation window")
)
