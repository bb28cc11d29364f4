package journal

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/chartscan/backtest"
	"github.com/rustyeddy/chartscan/pkg/id"
)

var runOrgFuncs = template.FuncMap{
	"short": id.Short,
	"join":  strings.Join,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

// FormatOrg renders the run summary as an org-mode block.
func (r *Run) FormatOrg(stats []backtest.SymbolStatistics) (string, error) {
	t, err := template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate)
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	err = t.Execute(buf, struct {
		*Run
		Stats []backtest.SymbolStatistics
	}{r, stats})
	if err != nil {
		return "", fmt.Errorf("render org: %w", err)
	}
	return buf.String(), nil
}

// WriteOrg writes the summary to r.OrgPath.
func (r *Run) WriteOrg(stats []backtest.SymbolStatistics) error {
	if r.OrgPath == "" {
		return fmt.Errorf("run %s has no org path", r.RunID)
	}
	s, err := r.FormatOrg(stats)
	if err != nil {
		return err
	}
	return os.WriteFile(r.OrgPath, []byte(s), 0644)
}

const RunOrgTemplate = `
* {{if eq .Mode "backtest"}}BACKTEST{{else}}SCAN{{end}}: {{len .Symbols}} symbols {{if .Interval}}{{.Interval}}{{else}}(interval?){{end}} ({{short .RunID}})
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:MODE:        {{.Mode}}
:INTERVAL:    {{.Interval}}
:SYMBOLS:     {{join .Symbols ","}}
{{- if .Kinds}}
:KINDS:       {{range $i, $k := .Kinds}}{{if $i}},{{end}}{{$k}}{{end}}
{{- end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:TRADES:      {{.Overall.TradeCount}}
:WINS:        {{.Overall.Wins}}
:LOSSES:      {{.Overall.Losses}}
:WIN_RATE:    {{printf "%.2f" .Overall.WinRate}}
:NET_PNL_PCT: {{printf "%.2f" .Overall.NetPnLPct}}
:PROFIT_FAC:  {{printf "%.2f" .Overall.ProfitFactor}}
:MAX_DD_PCT:  {{printf "%.2f" .Overall.MaxDDPct}}
:PARTIAL:     {{.Partial}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:          *{{printf "%.2f" .Overall.NetPnLPct}}%*
- Avg Gain:         *{{printf "%.2f" .Overall.AvgGainPct}}%*
- Max Drawdown:     *{{printf "%.2f" .Overall.MaxDDPct}}%*
- Win Rate:         *{{printf "%.2f" .Overall.WinRate}}%*
- Profit Factor:    *{{printf "%.2f" .Overall.ProfitFactor}}*

{{- if .Stats}}

** Per Symbol
| Symbol | Trades | Win % | Net % | PF | Max DD % |
|--------+--------+-------+-------+----+----------|
{{- range .Stats}}
| {{.Symbol}} | {{.TradeCount}} | {{printf "%.2f" .WinRate}} | {{printf "%.2f" .NetPnLPct}} | {{printf "%.2f" .ProfitFactor}} | {{printf "%.2f" .MaxDDPct}} |
{{- end}}
{{- end}}

{{- if .Skipped}}

** Skipped
{{- range .Skipped}}
- {{.}}
{{- end}}
{{- end}}

{{- if .Notes}}

** Observations
{{- range .Notes}}
- {{.}}
{{- end}}
{{- end}}
`

// FormatTradeOrg renders a trade as an org-mode block with a properties
// drawer and empty review sections.
func FormatTradeOrg(runID string, t backtest.Trade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", t.Symbol, t.Kind, id.Short(runID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":RUN_ID: %s\n", runID)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":KIND: %s\n", t.Kind)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.5f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.5f\n", t.ExitPrice)
	fmt.Fprintf(&b, ":ENTRY_TIME: %s\n", t.EntryTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":EXIT_TIME: %s\n", t.ExitTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":PNL_PCT: %.2f\n", t.PnLPct)
	fmt.Fprintf(&b, ":REASON: %s\n", t.Reason)
	b.WriteString(":END:\n\n")
	b.WriteString("*** Setup\n- \n\n")
	b.WriteString("*** Review\n- \n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(runID string, trades []backtest.Trade) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(runID, t))
	}
	return b.String()
}
