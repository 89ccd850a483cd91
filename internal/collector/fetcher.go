package collector

import (
	"context"

	"QuantDash/internal/model"
)

// Fetcher defines the operations the dashboard consumes from the analytics service.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string) ([]model.HistoryPoint, error)
	FetchIndicators(ctx context.Context, symbol string) ([]model.IndicatorPoint, error)
	Predict(ctx context.Context, symbol string, horizon int) (*model.Prediction, error)
	TradeSignal(ctx context.Context, symbol string, horizon int) (*model.TradeSignal, error)
	PaperTrade(ctx context.Context, symbol string, days int) (*model.PaperTradeResult, error)
	OptimizePortfolio(ctx context.Context, symbols []string) (*model.PortfolioAllocation, error)
	RiskMetrics(ctx context.Context, symbol string) (*model.RiskMetrics, error)
	Backtest(ctx context.Context, symbol string, capital float64) (*model.BacktestResult, error)
	Name() string
}
