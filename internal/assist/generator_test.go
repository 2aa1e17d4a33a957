package assist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"command-center-go/internal/mapper"
	"command-center-go/internal/types"
)

func TestGenerate(t *testing.T) {
	score := func(v int) *int { return &v }
	escalated := mapper.EscalatedIntent

	tests := []struct {
		name   string
		q      types.DisplayQuery
		action string
	}{
		{
			"high risk score on refund",
			types.DisplayQuery{RiskTag: types.RiskRefund, RiskScore: score(72), IntentConfidence: 0.9},
			"Step-up verification. Do NOT issue refund directly.",
		},
		{
			"risk score below alert",
			types.DisplayQuery{RiskTag: types.RiskFraud, RiskScore: score(49), IntentConfidence: 0.9, IntentPredicted: "SIM Change"},
			"Resolve with the standard playbook for SIM Change",
		},
		{
			"unknown tag never counts as risky",
			types.DisplayQuery{RiskTag: "mystery", RiskScore: score(99), IntentConfidence: 0.9, IntentPredicted: "Book"},
			"Resolve with the standard playbook for Book",
		},
		{
			"safety",
			types.DisplayQuery{RiskTag: types.RiskSafety, IntentConfidence: 0.9},
			"Call the driver now and escalate to the safety desk",
		},
		{
			"escalated by bot",
			types.DisplayQuery{RiskTag: types.RiskNormal, SuggestedIntent: &escalated, IntentConfidence: 0.1},
			"Pick up the escalation and confirm resolution with the driver",
		},
		{
			"low confidence",
			types.DisplayQuery{RiskTag: types.RiskNormal, IntentConfidence: 0.18, IntentPredicted: "Swap History"},
			"Confirm the driver's intent in their language before acting",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.action, Generate(tt.q).Action)
		})
	}
}

func TestGenerate_LowConfidenceInsight(t *testing.T) {
	card := Generate(types.DisplayQuery{RiskTag: types.RiskNormal, IntentConfidence: 0.18, IntentPredicted: "Swap History"})
	assert.Equal(t, `Bot intent confidence 18% for "Swap History"`, card.Insight)
}
