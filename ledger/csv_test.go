package ledger

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTradesCSV(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	open := sampleTrade("T1", at)
	done := closed("T2", at, -12.5, at.Add(time.Hour))
	done.CloseReason = "stop_loss"

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, []TradeRecord{open, done}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])

	assert.Equal(t, "T1", rows[1][1])
	assert.Equal(t, "2024-01-02T03:04:05Z", rows[1][2])
	assert.Equal(t, "0.100000", rows[1][5])
	assert.Equal(t, "OPEN", rows[1][14])
	assert.Equal(t, "", rows[1][15])

	assert.Equal(t, "-12.500000", rows[2][10])
	assert.Equal(t, "CLOSED", rows[2][14])
	assert.Equal(t, "2024-01-02T04:04:05Z", rows[2][15])
	assert.Equal(t, "stop_loss", rows[2][16])
}

func TestWriteTradesCSVDefaultsStatus(t *testing.T) {
	t.Parallel()
	rec := sampleTrade("T1", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.Empty(t, rec.Status)

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, []TradeRecord{rec}))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, string(StatusOpen), rows[1][14])
}
