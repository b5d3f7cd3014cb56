package backtest

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	return Report{
		RunID:          "01HV5Z3QZ8ABCDEFGHJKMNPQRS",
		Created:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Strategy:       MACrossover,
		Symbol:         "EURUSD",
		Timeframe:      "H1",
		Start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Bars:           720,
		InitialBalance: 10000,
		FinalEquity:    10250.5,
		TotalReturn:    0.02505,
		Sharpe:         1.234,
		MaxDrawdown:    -0.0312,
		WinRate:        0.55,
		Trades:         7,
	}
}

func TestPrintReport(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintReport(&buf, sampleReport())
	out := buf.String()

	assert.Contains(t, out, "Run ID:        01HV5Z3QZ8ABCDEFGHJKMNPQRS")
	assert.Contains(t, out, "Strategy:      ma_crossover")
	assert.Contains(t, out, "Trades:        7")
	assert.Contains(t, out, "Win Rate:      55.00%")
	assert.Contains(t, out, "Final Equity:  10250.50")
	assert.Contains(t, out, "Max Drawdown:  -3.12%")
	assert.NotContains(t, out, "Dataset:")
}

func TestWriteResultsCSV(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, []Report{sampleReport()}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, resultsHeader, rows[0])
	assert.Equal(t, "ma_crossover", rows[1][1])
	assert.Equal(t, "720", rows[1][6])
	assert.Equal(t, "0.025050", rows[1][7])
	assert.Equal(t, "7", rows[1][11])
	assert.Equal(t, "10250.50", rows[1][12])
}

func TestReadBarsCSV(t *testing.T) {
	t.Parallel()
	data := strings.Join([]string{
		"time,open,high,low,close,volume",
		"2024-01-01T00:00:00Z,1.1000,1.1010,1.0990,1.1005,120",
		"2024-01-01 01:00:00,1.1005,1.1020,1.1000,1.1015,80",
		"",
		"1704074400,1.1015,1.1030,1.1010,1.1025",
		"2024-01-01T03:00:00Z,1.1025,1.1030,1.1020,1.1022,10",
	}, "\n")

	bars, err := ReadBarsCSV(strings.NewReader(data), time.Time{}, time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 1.1005, bars[0].Close)
	assert.Equal(t, 120.0, bars[0].Volume)
	assert.Equal(t, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), bars[1].Time)
	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), bars[2].Time)
	assert.Equal(t, 0.0, bars[2].Volume)

	_, err = ReadBarsCSV(strings.NewReader("2024-01-01T00:00:00Z,x,1,1,1\n"), time.Time{}, time.Time{})
	assert.Error(t, err)
	_, err = ReadBarsCSV(strings.NewReader("yesterday,1,1,1,1\n"), time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestLoadBarsCSVMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadBarsCSV("/nonexistent/bars.csv", time.Time{}, time.Time{})
	assert.Error(t, err)
}
