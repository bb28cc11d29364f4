package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/internal/candletest"
	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/provider"
	"github.com/rustyeddy/chartscan/scan"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// workspace writes a breakout history for EUR_USD and a config pointing at
// it. It returns the config path.
func workspace(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	candles := candletest.New(market.Minute15).
		Flat(80, 99, 100, 98, 1000).
		Bar(99, 102.5, 98.8, 102, 2030).
		Bar(103, 103.5, 102.5, 103, 1000).
		Bar(104, 104.5, 103.5, 104, 1000).
		Bar(106, 106.5, 105.5, 106, 1000).
		Candles()
	_, err := provider.CSVDir{Dir: filepath.Join(dir, "data")}.Save("EUR_USD", market.Minute15, candles)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Scan.Symbols = []string{"EUR_USD", "GBP_USD"}
	cfg.Scan.LookbackDays = 5
	cfg.Providers.CSV.Dir = filepath.Join(dir, "data")
	cfg.Journal.DBPath = filepath.Join(dir, "journal.sqlite")

	path := filepath.Join(dir, "chartscan.yaml")
	require.NoError(t, cfg.SaveToFile(path))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "chartscan dev\n", out)
}

func TestBadLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "version")
	assert.Error(t, err)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Journal: sqlite")

	_, err = execute(t, "config", "validate", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScanPrintsDetections(t *testing.T) {
	cfg := workspace(t)

	out, err := execute(t, "--config", cfg, "scan", "--end", "2024-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "Detections:")
	assert.Contains(t, out, "BREAKOUT")
	assert.Contains(t, out, "- GBP_USD (data_unavailable)")
}

func TestScanJSON(t *testing.T) {
	cfg := workspace(t)

	out, err := execute(t, "--config", cfg, "scan", "--end", "2024-01-02", "-s", "EUR_USD", "-k", "breakout", "--json")
	require.NoError(t, err)

	var r scan.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Results, 1)
	require.Len(t, r.Results[0].Detections, 1)
	assert.Equal(t, market.Breakout, r.Results[0].Detections[0].Kind)
}

func TestScanRejectsUnknownKind(t *testing.T) {
	cfg := workspace(t)

	_, err := execute(t, "--config", cfg, "scan", "-k", "head_and_toes")
	assert.Error(t, err)
}

func TestBacktestJournalsRun(t *testing.T) {
	cfg := workspace(t)
	org := filepath.Join(t.TempDir(), "run.org")

	out, err := execute(t, "--config", cfg, "backtest", "--end", "2024-01-02", "--org", org)
	require.NoError(t, err)
	assert.Contains(t, out, "Backtest Result")
	assert.Contains(t, out, "EUR_USD")
	assert.Contains(t, out, "GBP_USD (data_unavailable)")
	assert.FileExists(t, org)

	out, err = execute(t, "--config", cfg, "journal", "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "backtest")
}
