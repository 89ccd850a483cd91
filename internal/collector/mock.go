package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"QuantDash/internal/model"
)

// ErrMockFailure is returned by MockFetcher operations configured to fail.
var ErrMockFailure = errors.New("mock failure")

// MockFetcher returns controllable fixed data for development and testing.
// Set fields before sharing the mock; use SetFail once calls may be in flight.
type MockFetcher struct {
	mu sync.Mutex

	Price      float64
	History    []model.HistoryPoint
	Indicators []model.IndicatorPoint
	Prediction *model.Prediction
	Signal     *model.TradeSignal
	Paper      *model.PaperTradeResult
	Portfolio  *model.PortfolioAllocation
	Risk       *model.RiskMetrics

	// BacktestResult is returned by Backtest; the name avoids the method.
	BacktestResult *model.BacktestResult

	// Fail lists operation names ("history", "indicators", "predict", "signal",
	// "paper", "portfolio", "risk", "backtest") that return ErrMockFailure.
	Fail map[string]bool
	// Delay is applied to every call before it answers.
	Delay time.Duration

	calls sync.Map // op -> *atomic.Int64
}

// NewMockFetcher creates a mock whose generated data is centered on price.
func NewMockFetcher(price float64) *MockFetcher {
	return &MockFetcher{Price: price, Fail: map[string]bool{}}
}

func (m *MockFetcher) Name() string { return "mock" }

// SetFail toggles failure for op.
func (m *MockFetcher) SetFail(op string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail == nil {
		m.Fail = map[string]bool{}
	}
	m.Fail[op] = fail
}

// Calls reports how many times op has been invoked.
func (m *MockFetcher) Calls(op string) int64 {
	if v, ok := m.calls.Load(op); ok {
		return v.(*atomic.Int64).Load()
	}
	return 0
}

func (m *MockFetcher) enter(ctx context.Context, op string) error {
	v, _ := m.calls.LoadOrStore(op, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)

	m.mu.Lock()
	delay, fail := m.Delay, m.Fail[op]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	if fail {
		return ErrMockFailure
	}
	return nil
}

func (m *MockFetcher) FetchHistory(ctx context.Context, _ string) ([]model.HistoryPoint, error) {
	if err := m.enter(ctx, "history"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.History != nil {
		return m.History, nil
	}
	return generateMockHistory(m.Price, 60), nil
}

func (m *MockFetcher) FetchIndicators(ctx context.Context, _ string) ([]model.IndicatorPoint, error) {
	if err := m.enter(ctx, "indicators"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Indicators != nil {
		return m.Indicators, nil
	}
	hist := generateMockHistory(m.Price, 30)
	points := make([]model.IndicatorPoint, len(hist))
	for i, h := range hist {
		points[i] = model.IndicatorPoint{
			Date:     h.Date,
			Close:    model.Float(h.Price),
			RSI:      model.Float(45 + float64(i%10)),
			BBMiddle: model.Float(h.Price),
			BBUpper:  model.Float(h.Price * 1.02),
			BBLower:  model.Float(h.Price * 0.98),
		}
	}
	return points, nil
}

func (m *MockFetcher) Predict(ctx context.Context, symbol string, _ int) (*model.Prediction, error) {
	if err := m.enter(ctx, "predict"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Prediction != nil {
		p := *m.Prediction
		return &p, nil
	}
	return &model.Prediction{
		Symbol:         symbol,
		LastClose:      m.Price,
		PredictedPrice: m.Price * 1.01,
		ConfidenceNote: "mock forecast",
	}, nil
}

func (m *MockFetcher) TradeSignal(ctx context.Context, symbol string, _ int) (*model.TradeSignal, error) {
	if err := m.enter(ctx, "signal"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Signal != nil {
		s := *m.Signal
		return &s, nil
	}
	return &model.TradeSignal{Symbol: symbol, Signal: model.SignalHold, Confidence: model.Float(0.5), Context: "mock"}, nil
}

func (m *MockFetcher) PaperTrade(ctx context.Context, symbol string, days int) (*model.PaperTradeResult, error) {
	if err := m.enter(ctx, "paper"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Paper != nil {
		p := *m.Paper
		return &p, nil
	}
	trades := make([]model.Trade, 0, days)
	for i := 0; i < days; i++ {
		action := model.ActionBuy
		if i%2 == 1 {
			action = model.ActionSell
		}
		trades = append(trades, model.Trade{Action: action, Price: m.Price * (1 + float64(i)*0.002), Quantity: 1})
	}
	return &model.PaperTradeResult{Symbol: symbol, FinalValue: 100000, Trades: trades}, nil
}

func (m *MockFetcher) OptimizePortfolio(ctx context.Context, symbols []string) (*model.PortfolioAllocation, error) {
	if err := m.enter(ctx, "portfolio"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Portfolio != nil {
		p := *m.Portfolio
		return &p, nil
	}
	weights := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		weights[s] = 1 / float64(len(symbols))
	}
	return &model.PortfolioAllocation{Symbols: symbols, Weights: weights, ExpectedReturn: 0.08, ExpectedRisk: 0.15}, nil
}

func (m *MockFetcher) RiskMetrics(ctx context.Context, symbol string) (*model.RiskMetrics, error) {
	if err := m.enter(ctx, "risk"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Risk != nil {
		r := *m.Risk
		return &r, nil
	}
	return &model.RiskMetrics{Symbol: symbol, Volatility: 0.2, MaxDrawdown: -0.1, VaR95: -0.02}, nil
}

func (m *MockFetcher) Backtest(ctx context.Context, symbol string, capital float64) (*model.BacktestResult, error) {
	if err := m.enter(ctx, "backtest"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BacktestResult != nil {
		r := *m.BacktestResult
		return &r, nil
	}
	if capital <= 0 {
		capital = 100000
	}
	curve := make([]float64, 30)
	equity := capital
	for i := range curve {
		if i%3 == 2 {
			equity *= 0.995
		} else {
			equity *= 1.004
		}
		curve[i] = equity
	}
	return &model.BacktestResult{
		Symbol:      symbol,
		FinalEquity: equity,
		TotalReturn: equity/capital - 1,
		Sharpe:      1.2,
		EquityCurve: curve,
	}, nil
}

func generateMockHistory(basePrice float64, count int) []model.HistoryPoint {
	points := make([]model.HistoryPoint, count)
	today := time.Now().UTC()
	for i := 0; i < count; i++ {
		d := today.AddDate(0, 0, -(count - 1 - i))
		points[i] = model.HistoryPoint{
			Date:  model.NewDate(d.Year(), d.Month(), d.Day()),
			Price: basePrice * (1 + float64(i-count/2)*0.001),
		}
	}
	return points
}
