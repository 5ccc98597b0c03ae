package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
	"github.com/jiaming2012/trading-simulator/src/eventpubsub"
	"github.com/jiaming2012/trading-simulator/src/eventservices"
	"github.com/jiaming2012/trading-simulator/src/risk"
	"github.com/jiaming2012/trading-simulator/src/simulation"
	"github.com/jiaming2012/trading-simulator/src/strategy"
	"github.com/jiaming2012/trading-simulator/src/utils"
)

type RunArgs struct {
	GoEnv          string
	CsvPath        string
	ConfigPath     string
	Symbol         string
	InitialBalance float64
	CommissionRate float64
	Start          string
	End            string
	StrategyName   string
	FastPeriod     int
	SlowPeriod     int
	ShowTrades     bool
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/simulator/main.go --csv candles.csv --strategy sma-cross",
	Short: "Replay a historical candle series against a trading strategy",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, err := cmd.Flags().GetString("go-env")
		if err != nil {
			log.Fatalf("error getting go-env: %v", err)
		}

		csvPath, err := cmd.Flags().GetString("csv")
		if err != nil {
			log.Fatalf("error getting csv: %v", err)
		}

		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		balance, err := cmd.Flags().GetFloat64("balance")
		if err != nil {
			log.Fatalf("error getting balance: %v", err)
		}

		commission, err := cmd.Flags().GetFloat64("commission")
		if err != nil {
			log.Fatalf("error getting commission: %v", err)
		}

		start, err := cmd.Flags().GetString("start")
		if err != nil {
			log.Fatalf("error getting start: %v", err)
		}

		end, err := cmd.Flags().GetString("end")
		if err != nil {
			log.Fatalf("error getting end: %v", err)
		}

		strategyName, err := cmd.Flags().GetString("strategy")
		if err != nil {
			log.Fatalf("error getting strategy: %v", err)
		}

		fastPeriod, err := cmd.Flags().GetInt("fast-period")
		if err != nil {
			log.Fatalf("error getting fast-period: %v", err)
		}

		slowPeriod, err := cmd.Flags().GetInt("slow-period")
		if err != nil {
			log.Fatalf("error getting slow-period: %v", err)
		}

		showTrades, err := cmd.Flags().GetBool("show-trades")
		if err != nil {
			log.Fatalf("error getting show-trades: %v", err)
		}

		if err := Run(RunArgs{
			GoEnv:          goEnv,
			CsvPath:        csvPath,
			ConfigPath:     configPath,
			Symbol:         symbol,
			InitialBalance: balance,
			CommissionRate: commission,
			Start:          start,
			End:            end,
			StrategyName:   strategyName,
			FastPeriod:     fastPeriod,
			SlowPeriod:     slowPeriod,
			ShowTrades:     showTrades,
		}); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func loadConfig(path string) (*eventmodels.SimulatorConfigYAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loadConfig: error reading %s: %w", path, err)
	}

	var cfg eventmodels.SimulatorConfigYAML
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loadConfig: error parsing %s: %w", path, err)
	}

	return &cfg, nil
}

func parseWindowTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t, err = time.Parse("2006-01-02", value)
		if err != nil {
			return nil, fmt.Errorf("parseWindowTime: invalid time %q: %w", value, err)
		}
	}

	return &t, nil
}

func buildStrategy(args RunArgs) (simulation.Strategy, error) {
	switch args.StrategyName {
	case "buy-and-hold":
		return strategy.NewBuyAndHold(), nil
	case "sma-cross":
		return strategy.NewSMACross(args.FastPeriod, args.SlowPeriod), nil
	default:
		return nil, fmt.Errorf("buildStrategy: unknown strategy %q", args.StrategyName)
	}
}

func Run(args RunArgs) error {
	if err := utils.InitEnvironmentVariables(args.GoEnv); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	candles, err := eventservices.ImportCandlesFromCsv(args.CsvPath)
	if err != nil {
		return fmt.Errorf("error importing candles: %w", err)
	}

	cfg := simulation.Config{
		Symbol:         args.Symbol,
		InitialBalance: decimal.NewFromFloat(args.InitialBalance),
		CommissionRate: decimal.NewFromFloat(args.CommissionRate),
	}

	if args.ConfigPath != "" {
		fileCfg, err := loadConfig(args.ConfigPath)
		if err != nil {
			return err
		}

		if fileCfg.Symbol != "" {
			cfg.Symbol = fileCfg.Symbol
		}
		if fileCfg.InitialBalance > 0 {
			cfg.InitialBalance = decimal.NewFromFloat(fileCfg.InitialBalance)
		}
		if fileCfg.CommissionRate > 0 {
			cfg.CommissionRate = decimal.NewFromFloat(fileCfg.CommissionRate)
		}

		if fileCfg.Risk != nil {
			cfg.RiskManager = risk.NewPortfolioRiskManager(
				fileCfg.Risk.MaxPortfolioRisk,
				fileCfg.Risk.MaxInstrumentRisk,
				fileCfg.Risk.MaxCorrelatedExposure,
				fileCfg.Risk.CorrelationThreshold,
			)
		}

		if fileCfg.TrailingStop != nil {
			cfg.TrailingStop = risk.NewTrailingStop(
				decimal.NewFromFloat(fileCfg.TrailingStop.InitialStopPct),
				decimal.NewFromFloat(fileCfg.TrailingStop.ActivationPct),
				decimal.NewFromFloat(fileCfg.TrailingStop.StepPct),
			)
		}
	}

	if cfg.StartTime, err = parseWindowTime(args.Start); err != nil {
		return err
	}
	if cfg.EndTime, err = parseWindowTime(args.End); err != nil {
		return err
	}

	if args.ShowTrades {
		bus := eventpubsub.New()
		if err := bus.Subscribe(eventpubsub.TradeEventTopic, func(event *eventmodels.TradeEvent) {
			fmt.Printf("[%s] %s %s @ %s (commission %s)\n",
				event.Header.SimulationTime.Format(time.RFC3339),
				event.Action, event.Amount.StringFixed(6), event.Price, event.Commission.StringFixed(4))
		}); err != nil {
			return fmt.Errorf("error subscribing to trade events: %w", err)
		}

		cfg.Bus = bus
	}

	engine, err := simulation.NewEngine(candles, cfg)
	if err != nil {
		return fmt.Errorf("error creating engine: %w", err)
	}

	strat, err := buildStrategy(args)
	if err != nil {
		return err
	}

	results, err := engine.RunFullSimulation(strat)
	if err != nil {
		return fmt.Errorf("error running simulation: %w", err)
	}

	renderResults(results, engine.RejectedTrades())

	return nil
}

func renderResults(results *simulation.ResultSet, rejectedTrades int) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Price", "Balance", "Asset", "Asset Value", "Total Value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, row := range results.Rows {
		table.Append([]string{
			row.Time.Format(time.RFC3339),
			fmt.Sprintf("%.2f", row.Price),
			row.Balance.StringFixed(2),
			row.AssetAmount.StringFixed(6),
			row.AssetValue.StringFixed(2),
			row.TotalValue.StringFixed(2),
		})
	}

	table.Render()

	hundred := decimal.NewFromInt(100)

	summary := tablewriter.NewWriter(os.Stdout)
	summary.SetHeader([]string{"Metric", "Value"})
	summary.SetAlignment(tablewriter.ALIGN_LEFT)
	summary.AppendBulk([][]string{
		{"Initial Value", results.InitialValue.StringFixed(2)},
		{"Final Value", results.FinalValue.StringFixed(2)},
		{"Total Return", results.TotalReturn.Mul(hundred).StringFixed(2) + "%"},
		{"Buy & Hold Return", results.BuyHoldReturn.Mul(hundred).StringFixed(2) + "%"},
		{"Excess Return", results.ExcessReturn.Mul(hundred).StringFixed(2) + "%"},
		{"Trades", fmt.Sprintf("%d (%d buys, %d sells)", results.Stats.TotalTrades, results.Stats.Buys, results.Stats.Sells)},
		{"Rejected Trades", fmt.Sprintf("%d", rejectedTrades)},
		{"Win Rate", fmt.Sprintf("%.2f%%", results.Stats.WinRate*100)},
		{"Net Profit", results.Stats.NetProfit.StringFixed(2)},
		{"Profit Factor", fmt.Sprintf("%.2f", results.Stats.ProfitFactor)},
		{"Total Commission", results.Stats.TotalCommission.StringFixed(2)},
	})
	summary.Render()
}

func main() {
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in")
	runCmd.PersistentFlags().String("csv", "", "Path to the OHLCV candle csv file")
	runCmd.PersistentFlags().String("config", "", "Optional yaml file with risk and trailing stop settings")
	runCmd.PersistentFlags().String("symbol", "BTC-USD", "Instrument symbol")
	runCmd.PersistentFlags().Float64("balance", 10000, "Initial cash balance")
	runCmd.PersistentFlags().Float64("commission", 0.001, "Commission rate per trade")
	runCmd.PersistentFlags().String("start", "", "Inclusive window start (RFC3339 or YYYY-MM-DD)")
	runCmd.PersistentFlags().String("end", "", "Inclusive window end (RFC3339 or YYYY-MM-DD)")
	runCmd.PersistentFlags().String("strategy", "buy-and-hold", "Strategy to run: buy-and-hold or sma-cross")
	runCmd.PersistentFlags().Int("fast-period", 10, "Fast moving average period for sma-cross")
	runCmd.PersistentFlags().Int("slow-period", 30, "Slow moving average period for sma-cross")
	runCmd.PersistentFlags().Bool("show-trades", false, "Print each trade as it executes")

	runCmd.MarkPersistentFlagRequired("csv")

	if err := runCmd.Execute(); err != nil {
		log.Fatalf("error executing command: %v", err)
	}
}
