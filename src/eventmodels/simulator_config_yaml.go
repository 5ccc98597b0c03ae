package eventmodels

type RiskConfigYAML struct {
	MaxPortfolioRisk      float64 `yaml:"max_portfolio_risk"`
	MaxInstrumentRisk     float64 `yaml:"max_instrument_risk"`
	MaxCorrelatedExposure float64 `yaml:"max_correlated_exposure"`
	CorrelationThreshold  float64 `yaml:"correlation_threshold"`
}

type TrailingStopConfigYAML struct {
	InitialStopPct float64 `yaml:"initial_stop_pct"`
	ActivationPct  float64 `yaml:"activation_pct"`
	StepPct        float64 `yaml:"step_pct"`
}

type SimulatorConfigYAML struct {
	Symbol         string                  `yaml:"symbol"`
	InitialBalance float64                 `yaml:"initial_balance"`
	CommissionRate float64                 `yaml:"commission_rate"`
	Risk           *RiskConfigYAML         `yaml:"risk"`
	TrailingStop   *TrailingStopConfigYAML `yaml:"trailing_stop"`
}
