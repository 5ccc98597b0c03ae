package eventpubsub

const (
	TradeEventTopic           = "simulation:trade"
	PortfolioUpdateEventTopic = "simulation:portfolio_update"
)
