package types

// SuccessEnvelope wraps every 2xx payload the API returns.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the serialized form of a coded error. Details carries the
// per-field validation map when one exists.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
