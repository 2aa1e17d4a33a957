package triage

import (
	"math"
	"sort"

	"command-center-go/internal/types"
)

type IntentShare struct {
	Intent  string `json:"intent"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// Summary feeds the KPI cards and the top failure intents card.
type Summary struct {
	Total         int           `json:"total"`
	HighRisk      int           `json:"highRisk"`
	AvgConfidence int           `json:"avgConfidencePct"`
	SLABreaches   int           `json:"slaBreaches"`
	LowConfidence int           `json:"lowConfidence"`
	TopIntents    []IntentShare `json:"topIntents"`
}

// Summarize aggregates over qs (normally the full, unfiltered collection).
func Summarize(qs []types.DisplayQuery) Summary {
	s := Summary{Total: len(qs), TopIntents: TopIntents(qs)}
	sum := 0.0
	for _, q := range qs {
		sum += q.IntentConfidence
		if IsHighRisk(q.RiskTag) {
			s.HighRisk++
		}
		if breached(q) {
			s.SLABreaches++
		}
		if IsLowConfidence(q) {
			s.LowConfidence++
		}
	}
	if s.Total > 0 {
		s.AvgConfidence = Percent(sum / float64(s.Total))
	}
	return s
}

// TopIntents counts queries per intent label, most frequent first.
// Ties keep first-seen order.
func TopIntents(qs []types.DisplayQuery) []IntentShare {
	counts := map[string]int{}
	var order []string
	for _, q := range qs {
		if _, ok := counts[q.IntentPredicted]; !ok {
			order = append(order, q.IntentPredicted)
		}
		counts[q.IntentPredicted]++
	}
	out := make([]IntentShare, 0, len(order))
	for _, intent := range order {
		share := IntentShare{Intent: intent, Count: counts[intent]}
		if len(qs) > 0 {
			share.Percent = Percent(float64(share.Count) / float64(len(qs)))
		}
		out = append(out, share)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// breached: flagged by the source, or the deadline has already passed.
func breached(q types.DisplayQuery) bool {
	if q.SLABreach != nil && *q.SLABreach {
		return true
	}
	return q.SLAMinutesLeft != nil && *q.SLAMinutesLeft < 0
}

// Percent turns a ratio into a whole percentage, halves rounding up.
func Percent(ratio float64) int {
	return int(math.Floor(ratio*100 + 0.5))
}
