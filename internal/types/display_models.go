// internal/types/display_models.go
package types

import "time"

// --------------------------------------------
// Risk tags attached to a query
// --------------------------------------------
type RiskTag string

const (
	RiskNormal   RiskTag = "normal"
	RiskRefund   RiskTag = "refund"
	RiskFraud    RiskTag = "fraud"
	RiskSafety   RiskTag = "safety"
	RiskHighRisk RiskTag = "highRisk"
)

// RiskTags lists the closed set in display order.
var RiskTags = []RiskTag{RiskNormal, RiskRefund, RiskFraud, RiskSafety, RiskHighRisk}

// Known reports whether t is one of the closed set.
func (t RiskTag) Known() bool {
	for _, k := range RiskTags {
		if t == k {
			return true
		}
	}
	return false
}

// Canonical closes t over the known set; anything else reads as normal.
func (t RiskTag) Canonical() RiskTag {
	if t.Known() {
		return t
	}
	return RiskNormal
}

// --------------------------------------------
// Deep link shown in the agent assist block
// --------------------------------------------
type DeepLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// --------------------------------------------
// View model for a single queue row / detail
// --------------------------------------------
type DisplayQuery struct {
	ID                 string            `json:"id"`
	Timestamp          time.Time         `json:"timestamp"`
	DriverID           string            `json:"driverId"`
	DriverName         string            `json:"driverName"`
	Language           string            `json:"language"`
	IntentPredicted    string            `json:"intentPredicted"`
	IntentConfidence   float64           `json:"intentConfidence"` // 0–1
	Entities           map[string]string `json:"entities"`
	FailureReason      string            `json:"failureReason"`
	RiskTag            RiskTag           `json:"riskTag"`
	RiskScore          *int              `json:"riskScore,omitempty"` // 0–100
	RawText            string            `json:"rawText"`
	TranslatedText     *string           `json:"translatedText,omitempty"`
	VoiceConfidence    *float64          `json:"voiceConfidence,omitempty"`
	SuggestedIntent    *string           `json:"suggestedIntent,omitempty"`
	SuggestedFollowUps []string          `json:"suggestedFollowUps,omitempty"`
	DeepLinks          []DeepLink        `json:"deepLinks,omitempty"`
	SLABreach          *bool             `json:"slaBreach,omitempty"`
	SLAMinutesLeft     *int              `json:"slaMinutesLeft,omitempty"`
}
