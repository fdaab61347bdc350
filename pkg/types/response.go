package types

// DataEnvelope wraps every successful response body.
type DataEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is what clients see of a failed request.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
