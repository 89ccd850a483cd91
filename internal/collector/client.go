package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"QuantDash/internal/model"
)

// maxErrorBody caps how much of an error response is kept for messages.
const maxErrorBody = 512

// HTTPFetcher implements Fetcher against the analytics service REST API.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates a fetcher with the given timeout and optional proxy.
func NewHTTPFetcher(baseURL string, timeout time.Duration, proxyURL string) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

func (f *HTTPFetcher) FetchHistory(ctx context.Context, symbol string) ([]model.HistoryPoint, error) {
	var resp model.HistoryResponse
	if err := f.do(ctx, http.MethodGet, "/history/"+url.PathEscape(symbol), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	// Ensure chronological order
	sort.SliceStable(resp.History, func(i, j int) bool {
		return resp.History[i].Date.Before(resp.History[j].Date.Time)
	})
	return resp.History, nil
}

func (f *HTTPFetcher) FetchIndicators(ctx context.Context, symbol string) ([]model.IndicatorPoint, error) {
	var resp model.IndicatorsResponse
	if err := f.do(ctx, http.MethodGet, "/indicators/"+url.PathEscape(symbol), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch indicators: %w", err)
	}
	sort.SliceStable(resp.Indicators, func(i, j int) bool {
		return resp.Indicators[i].Date.Before(resp.Indicators[j].Date.Time)
	})
	return resp.Indicators, nil
}

func (f *HTTPFetcher) Predict(ctx context.Context, symbol string, horizon int) (*model.Prediction, error) {
	var pred model.Prediction
	req := model.ForecastRequest{Symbol: symbol, Horizon: horizon}
	if err := f.do(ctx, http.MethodPost, "/predict", req, &pred); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return &pred, nil
}

func (f *HTTPFetcher) TradeSignal(ctx context.Context, symbol string, horizon int) (*model.TradeSignal, error) {
	var sig model.TradeSignal
	req := model.ForecastRequest{Symbol: symbol, Horizon: horizon}
	if err := f.do(ctx, http.MethodPost, "/trade-signal", req, &sig); err != nil {
		return nil, fmt.Errorf("trade signal: %w", err)
	}
	return &sig, nil
}

func (f *HTTPFetcher) PaperTrade(ctx context.Context, symbol string, days int) (*model.PaperTradeResult, error) {
	var res model.PaperTradeResult
	req := model.PaperTradeRequest{Symbol: symbol, Days: days}
	if err := f.do(ctx, http.MethodPost, "/paper-trade", req, &res); err != nil {
		return nil, fmt.Errorf("paper trade: %w", err)
	}
	return &res, nil
}

func (f *HTTPFetcher) OptimizePortfolio(ctx context.Context, symbols []string) (*model.PortfolioAllocation, error) {
	req := model.PortfolioRequest{Symbols: symbols}
	if err := model.Validate(&req); err != nil {
		return nil, fmt.Errorf("optimize portfolio: %w", err)
	}
	var alloc model.PortfolioAllocation
	if err := f.do(ctx, http.MethodPost, "/portfolio/optimize", req, &alloc); err != nil {
		return nil, fmt.Errorf("optimize portfolio: %w", err)
	}
	return &alloc, nil
}

func (f *HTTPFetcher) RiskMetrics(ctx context.Context, symbol string) (*model.RiskMetrics, error) {
	var risk model.RiskMetrics
	if err := f.do(ctx, http.MethodGet, "/risk/"+url.PathEscape(symbol), nil, &risk); err != nil {
		return nil, fmt.Errorf("risk metrics: %w", err)
	}
	return &risk, nil
}

func (f *HTTPFetcher) Backtest(ctx context.Context, symbol string, capital float64) (*model.BacktestResult, error) {
	path := "/backtest/" + url.PathEscape(symbol)
	if capital > 0 {
		path += "?" + url.Values{"capital": {strconv.FormatFloat(capital, 'f', -1, 64)}}.Encode()
	}
	var res model.BacktestResult
	if err := f.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	return &res, nil
}

// do sends one JSON request and decodes and validates the response into dest.
func (f *HTTPFetcher) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrMalformed, err)
	}
	if err := model.Validate(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
