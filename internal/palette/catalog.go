package palette

import "strings"

// Command is an entry in the palette catalog.
type Command struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Command ids understood by the dashboard.
const (
	CmdPredict = "predict"
	CmdSignal  = "signal"
	CmdPaper   = "paper"
	CmdHistory = "history"

	// GoPrefix introduces a free-text navigation command, e.g. "go:TSLA".
	GoPrefix = "go:"
)

// DefaultCatalog is the fixed command list shown in the palette.
var DefaultCatalog = []Command{
	{ID: CmdPredict, Label: "Run Prediction"},
	{ID: CmdSignal, Label: "Get Trade Signal"},
	{ID: CmdPaper, Label: "Run Paper Trading"},
	{ID: CmdHistory, Label: "Show Price History"},
}

// Filter returns the commands whose label contains query, case-insensitively,
// in catalog order.
func Filter(catalog []Command, query string) []Command {
	q := strings.ToLower(query)
	out := make([]Command, 0, len(catalog))
	for _, c := range catalog {
		if strings.Contains(strings.ToLower(c.Label), q) {
			out = append(out, c)
		}
	}
	return out
}

// ParseGo extracts the symbol from a "go:<SYMBOL>" command. The symbol is trimmed
// and uppercased; ok is false when the prefix or symbol is missing.
func ParseGo(input string) (symbol string, ok bool) {
	s := strings.TrimSpace(input)
	if len(s) < len(GoPrefix) || !strings.EqualFold(s[:len(GoPrefix)], GoPrefix) {
		return "", false
	}
	symbol = strings.ToUpper(strings.TrimSpace(s[len(GoPrefix):]))
	if symbol == "" || strings.ContainsAny(symbol, " \t/") {
		return "", false
	}
	return symbol, true
}

// GoCommand builds the command id that navigates to symbol.
func GoCommand(symbol string) string {
	return GoPrefix + strings.ToUpper(symbol)
}
