package types

import (
	"bytes"
	"encoding/json"
)

// RawQuery is a failed bot query as served by GET /api/queries.
// Every scalar is a Text so one mistyped field never rejects the record.
type RawQuery struct {
	ID            Text  `json:"id"`
	DriverID      Text  `json:"driverId"`
	Language      Text  `json:"language"`
	Intent        Text  `json:"intent"`
	Confidence    Text  `json:"confidence"`
	FailureReason Text  `json:"failureReason"`
	RiskTag       Text  `json:"riskTag"`
	Action        Text  `json:"action"`
	Summary       Text  `json:"summary"`
	CreatedAt     Text  `json:"createdAt"`
	UpdatedAt     Text  `json:"updatedAt"`
	DeletedAt     *Text `json:"deletedAt"`
}

// Text is a JSON value kept in its textual form. Strings decode as-is,
// numbers and booleans keep their literal, null, objects and arrays decode to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	switch b[0] {
	case '{', '[':
		*t = ""
		return nil
	}
	*t = Text(b)
	return nil
}

func (t Text) String() string { return string(t) }
