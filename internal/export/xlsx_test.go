package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"command-center-go/internal/triage"
	"command-center-go/internal/types"
)

func TestWriteXLSX(t *testing.T) {
	score := 72
	escalated := "Escalated"
	qs := []types.DisplayQuery{
		{
			ID: "2", Timestamp: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC), DriverID: "DRV-2",
			Language: "Tamil", IntentPredicted: "Refund Request", IntentConfidence: 0.31,
			RiskTag: types.RiskRefund, RiskScore: &score, FailureReason: "Policy restricted",
			SuggestedIntent: &escalated, RawText: "battery damaged, refund chahiye",
		},
		{
			ID: "1", Timestamp: time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC), DriverID: "DRV-1",
			Language: "Hindi", IntentPredicted: "Swap History", IntentConfidence: 0.45,
			RiskTag: types.RiskNormal, RawText: "swap history dikhao",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, qs, triage.Summarize(qs)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{QueueSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(QueueSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, QueueHeader, rows[0])
	assert.Equal(t, []string{
		"2", "2026-10-16T08:00:00Z", "DRV-2", "Tamil", "Refund Request", "31",
		"refund", "72", "Policy restricted", "Escalated", "battery damaged, refund chahiye",
	}, rows[1])
	assert.Equal(t, "1", rows[2][0])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Unresolved bot queries", "2"}, summary[0])
	assert.Equal(t, []string{"High-risk / Escalated", "1"}, summary[1])
	assert.Equal(t, []string{"Avg bot confidence %", "38"}, summary[2])
	assert.Equal(t, []string{"Intent", "Count", "Share %"}, summary[6])
	assert.Equal(t, []string{"Refund Request", "1", "50"}, summary[7])
}

func TestWriteXLSX_EmptyQueue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil, triage.Summarize(nil)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(QueueSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
