package strategy

import "math"

// Confidence is a signal confidence clamped to [0,1] with a display label.
type Confidence struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// Confidence labels.
const (
	LabelHigh   = "High"
	LabelMedium = "Medium"
	LabelLow    = "Low"
)

// Tiers maps a minimum score to its label, highest first.
var Tiers = []struct {
	MinScore float64
	Label    string
}{
	{0.6, LabelHigh},
	{0.3, LabelMedium},
}

// DefaultLabel applies below the lowest tier.
const DefaultLabel = LabelLow

func mapTier(score float64) string {
	for _, t := range Tiers {
		if score >= t.MinScore {
			return t.Label
		}
	}
	return DefaultLabel
}

// NormalizeConfidence clamps value into [0,1] and labels it. NaN maps to {0, Low}.
func NormalizeConfidence(value float64) Confidence {
	if math.IsNaN(value) {
		return Confidence{Score: 0, Label: DefaultLabel}
	}
	score := math.Max(0, math.Min(1, value))
	return Confidence{Score: score, Label: mapTier(score)}
}

// NormalizeConfidencePtr treats a missing value like NaN.
func NormalizeConfidencePtr(value *float64) Confidence {
	if value == nil {
		return Confidence{Score: 0, Label: DefaultLabel}
	}
	return NormalizeConfidence(*value)
}
