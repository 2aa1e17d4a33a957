package assist

import (
	"fmt"

	"command-center-go/internal/mapper"
	"command-center-go/internal/triage"
	"command-center-go/internal/types"
)

// RiskScoreAlert is the score from which risk signals are surfaced to the agent.
const RiskScoreAlert = 50

// ActionCard is the "what should the agent do" block of the detail panel.
type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate picks the card for q. Rules are checked from most to least severe.
func Generate(q types.DisplayQuery) ActionCard {
	if q.RiskScore != nil && *q.RiskScore >= RiskScoreAlert && triage.IsHighRisk(q.RiskTag) {
		return ActionCard{
			Insight: fmt.Sprintf("Risk score %d / 100 on a %s query", *q.RiskScore, q.RiskTag),
			Action:  "Step-up verification. Do NOT issue refund directly.",
			Impact:  "Blocks refund and SIM-change fraud before payout",
		}
	}
	if q.RiskTag == types.RiskSafety {
		return ActionCard{
			Insight: "Driver raised a safety concern",
			Action:  "Call the driver now and escalate to the safety desk",
			Impact:  "Driver safety; regulatory exposure",
		}
	}
	if q.SuggestedIntent != nil && *q.SuggestedIntent == mapper.EscalatedIntent {
		return ActionCard{
			Insight: "Bot already escalated this query",
			Action:  "Pick up the escalation and confirm resolution with the driver",
			Impact:  "Avoids a repeat call from the same driver",
		}
	}
	if triage.IsLowConfidence(q) {
		return ActionCard{
			Insight: fmt.Sprintf("Bot intent confidence %.0f%% for %q", q.IntentConfidence*100, q.IntentPredicted),
			Action:  "Confirm the driver's intent in their language before acting",
			Impact:  "Improves first-contact resolution; feeds intent retraining",
		}
	}
	return ActionCard{
		Insight: "No strong risk or confidence signal",
		Action:  "Resolve with the standard playbook for " + q.IntentPredicted,
		Impact:  "Low immediate intervention",
	}
}
