// Package mapper turns raw queries from the remote source into display records.
// Every function here is pure and total: malformed input degrades to a documented default.
package mapper

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"command-center-go/internal/types"
)

// EscalatedAction is the raw action value that marks a bot hand-off.
const EscalatedAction = "escalated"

// EscalatedIntent is suggested to the agent for escalated queries.
const EscalatedIntent = "Escalated"

// Epoch is the timestamp given to records whose createdAt cannot be parsed.
var Epoch = time.Unix(0, 0).UTC()

var upperRe = regexp.MustCompile(`([A-Z])`)

// accepted createdAt layouts, tried in order; zone-less forms are read as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Map converts one raw query. It never fails.
func Map(raw types.RawQuery) types.DisplayQuery {
	d := types.DisplayQuery{
		ID:               raw.ID.String(),
		Timestamp:        ParseTimestamp(raw.CreatedAt.String()),
		DriverID:         raw.DriverID.String(),
		DriverName:       raw.DriverID.String(),
		Language:         TitleLanguage(raw.Language.String()),
		IntentPredicted:  IntentLabel(raw.Intent.String()),
		IntentConfidence: ParseConfidence(raw.Confidence.String()),
		Entities:         map[string]string{},
		FailureReason:    raw.FailureReason.String(),
		RiskTag:          riskTag(raw.RiskTag.String()),
		RawText:          raw.Summary.String(),
	}
	if raw.Action.String() == EscalatedAction {
		s := EscalatedIntent
		d.SuggestedIntent = &s
	}
	return d
}

// MapAll maps every record, keeping order.
func MapAll(raws []types.RawQuery) []types.DisplayQuery {
	out := make([]types.DisplayQuery, 0, len(raws))
	for _, r := range raws {
		out = append(out, Map(r))
	}
	return out
}

// riskTag keeps the raw value; closing it to the known set is left to consumers.
func riskTag(raw string) types.RiskTag {
	if raw == string(types.RiskHighRisk) {
		return types.RiskHighRisk
	}
	return types.RiskTag(raw)
}

// ParseTimestamp parses an ISO-8601 timestamp, falling back to Epoch.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return Epoch
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return Epoch
}

// TitleLanguage upper-cases the first rune: "hindi" -> "Hindi".
func TitleLanguage(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// IntentLabel splits a machine-cased intent: "CheckSwapHistory" -> "Check Swap History".
func IntentLabel(intent string) string {
	if label := strings.TrimSpace(upperRe.ReplaceAllString(intent, " $1")); label != "" {
		return label
	}
	return intent
}

// ParseConfidence returns the confidence in [0,1]; anything else is 0.
func ParseConfidence(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > 1 {
		return 0
	}
	return f
}
