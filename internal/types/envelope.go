package types

// ErrorBody is the failure envelope: {"success": false, "error": {"message": "..."}}.
type ErrorBody struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
}

// Envelope is the success envelope used by our own API responses.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// NewErrorBody builds a failure envelope with message.
func NewErrorBody(message string) ErrorBody {
	return ErrorBody{Success: false, Error: ErrorDetail{Message: message}}
}
