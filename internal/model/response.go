package model

// Response is the uniform JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewSuccessResponse wraps a payload in the success envelope.
func NewSuccessResponse(message string, data interface{}) Response {
	return Response{Success: true, Message: message, Data: data}
}

// NewErrorResponse wraps an error message in the failure envelope. detail is
// optional machine-oriented context; it must never carry internal store
// errors or stack traces.
func NewErrorResponse(message, detail string) Response {
	return Response{Success: false, Message: message, Error: detail}
}
