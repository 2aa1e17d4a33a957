// Package triage filters the agent queue and derives its KPIs.
//
// All functions are pure: they take the collection as input, never retain it,
// and return results in the input's relative order.
package triage

import (
	"fmt"
	"strings"

	"command-center-go/internal/types"
)

// All is the sentinel meaning "no constraint" for every filter dimension.
const All = "all"

// View is a named smart view.
type View string

const (
	ViewAll        View = "all"
	ViewRefundRisk View = "refund_risk"
	ViewSLABreach  View = "sla_breach"
	ViewLowConf    View = "low_conf"
)

// Views lists the smart views in display order.
var Views = []View{ViewAll, ViewRefundRisk, ViewSLABreach, ViewLowConf}

const (
	// LowConfidence is the threshold under which the bot is "clueless".
	LowConfidence = 0.5
	// SLAWindowMinutes bounds the sla_breach view.
	SLAWindowMinutes = 10
)

// ParseView validates a smart view id; "" reads as all.
func ParseView(s string) (View, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ViewAll, nil
	}
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// ParseRisk validates a risk filter against the closed tag set; "" and "all" read as all.
func ParseRisk(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == All {
		return All, nil
	}
	if !types.RiskTag(s).Known() {
		return "", fmt.Errorf("unknown risk tag %q", s)
	}
	return s, nil
}

// Selection holds the active filters. Zero values impose no constraint.
type Selection struct {
	Language string
	Risk     string
	Intent   string
	View     View
	// MinRiskScore additionally gates refund_risk on riskScore when > 0.
	MinRiskScore int
}

func active(v string) bool { return v != "" && v != All }

// Filter returns the queries matching every active predicate, in input order.
func Filter(qs []types.DisplayQuery, sel Selection) []types.DisplayQuery {
	out := make([]types.DisplayQuery, 0, len(qs))
	for _, q := range qs {
		if sel.Match(q) {
			out = append(out, q)
		}
	}
	return out
}

// Match reports whether q passes the selection.
func (sel Selection) Match(q types.DisplayQuery) bool {
	if active(sel.Language) && !strings.EqualFold(q.Language, sel.Language) {
		return false
	}
	if active(sel.Risk) && string(q.RiskTag) != sel.Risk {
		return false
	}
	if active(sel.Intent) && q.IntentPredicted != sel.Intent {
		return false
	}
	switch sel.View {
	case ViewRefundRisk:
		return IsRefundRisk(q, sel.MinRiskScore)
	case ViewSLABreach:
		return IsSLABreaching(q)
	case ViewLowConf:
		return IsLowConfidence(q)
	}
	return true
}

// IsHighRisk reports membership in {highRisk, fraud, refund}; unknown tags are never high risk.
func IsHighRisk(tag types.RiskTag) bool {
	switch tag {
	case types.RiskHighRisk, types.RiskFraud, types.RiskRefund:
		return true
	}
	return false
}

// IsRefundRisk backs the refund_risk view. An unset risk score counts as 0.
func IsRefundRisk(q types.DisplayQuery, minScore int) bool {
	if !IsHighRisk(q.RiskTag) {
		return false
	}
	if minScore <= 0 {
		return true
	}
	score := 0
	if q.RiskScore != nil {
		score = *q.RiskScore
	}
	return score >= minScore
}

// IsSLABreaching: deadline known and 0..10 minutes away.
func IsSLABreaching(q types.DisplayQuery) bool {
	return q.SLAMinutesLeft != nil && *q.SLAMinutesLeft >= 0 && *q.SLAMinutesLeft <= SLAWindowMinutes
}

func IsLowConfidence(q types.DisplayQuery) bool {
	return q.IntentConfidence < LowConfidence
}
