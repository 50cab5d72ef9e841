package types

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the only shape the relay ever answers with. Callers branch on
// Status; Code is set on errors only.
type Envelope struct {
	Status    string    `json:"status"`
	Output    string    `json:"output,omitempty"`
	Message   string    `json:"message,omitempty"`
	Code      ErrorKind `json:"code,omitempty"`
	RequestID string    `json:"request_id,omitempty"`

	// Populated only when debug errors are enabled.
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}
