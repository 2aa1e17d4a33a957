package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"command-center-go/internal/triage"
	"command-center-go/internal/types"
)

const (
	QueueSheet   = "Queue"
	SummarySheet = "Summary"
)

// QueueHeader is the first row of the queue sheet.
var QueueHeader = []string{
	"ID", "Created (UTC)", "Driver", "Language", "Intent", "Confidence %",
	"Risk", "Risk score", "Failure reason", "Suggested", "Utterance",
}

// WriteXLSX writes qs (in the given order) and the summary as a workbook to w.
func WriteXLSX(w io.Writer, qs []types.DisplayQuery, summary triage.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", QueueSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, QueueSheet, 1, toAny(QueueHeader)); err != nil {
		return err
	}
	for i, q := range qs {
		if err := writeRow(f, QueueSheet, i+2, queueRow(q)); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	rows := [][]any{
		{"Unresolved bot queries", summary.Total},
		{"High-risk / Escalated", summary.HighRisk},
		{"Avg bot confidence %", summary.AvgConfidence},
		{"SLA breaches", summary.SLABreaches},
		{"Low confidence", summary.LowConfidence},
		{},
		{"Intent", "Count", "Share %"},
	}
	for _, s := range summary.TopIntents {
		rows = append(rows, []any{s.Intent, s.Count, s.Percent})
	}
	for i, r := range rows {
		if err := writeRow(f, SummarySheet, i+1, r); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func queueRow(q types.DisplayQuery) []any {
	score := ""
	if q.RiskScore != nil {
		score = strconv.Itoa(*q.RiskScore)
	}
	suggested := ""
	if q.SuggestedIntent != nil {
		suggested = *q.SuggestedIntent
	}
	return []any{
		q.ID,
		q.Timestamp.UTC().Format(time.RFC3339),
		q.DriverID,
		q.Language,
		q.IntentPredicted,
		triage.Percent(q.IntentConfidence),
		string(q.RiskTag),
		score,
		q.FailureReason,
		suggested,
		q.RawText,
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
