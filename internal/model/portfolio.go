package model

// PortfolioRequest is the body of POST /portfolio/optimize.
type PortfolioRequest struct {
	Symbols []string `json:"symbols" validate:"min=2,dive,required"`
}

// PortfolioAllocation is the minimum-variance allocation returned by the service.
type PortfolioAllocation struct {
	Symbols        []string           `json:"symbols,omitempty"`
	Weights        map[string]float64 `json:"weights" validate:"required,min=1"`
	ExpectedReturn float64            `json:"expected_return"`
	ExpectedRisk   float64            `json:"expected_risk" validate:"gte=0"`
}

// RiskMetrics summarizes the historical risk of a symbol. All values are fractions.
type RiskMetrics struct {
	Symbol      string  `json:"symbol,omitempty"`
	Volatility  float64 `json:"volatility" validate:"gte=0"`
	MaxDrawdown float64 `json:"max_drawdown" validate:"lte=0"`
	VaR95       float64 `json:"var_95"`
}
