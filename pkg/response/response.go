package response

// Err is the error envelope returned by HTTP APIs: 4xx/5xx {"error": "...",
// "details": "..."} where details is present only on server-side failures.
type Err struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Error builds a client-facing error body.
func Error(msg string) *Err {
	return &Err{Error: msg}
}

// ErrorWithDetails builds a server error body carrying diagnostic details.
func ErrorWithDetails(msg, details string) *Err {
	return &Err{Error: msg, Details: details}
}

// Received is the fixed acknowledgement body for webhook deliveries. The
// provider treats any non-200 as a signal to retry, so processing failures
// are logged instead of surfaced.
type Received struct {
	Received bool `json:"received"`
}

func Ack() *Received {
	return &Received{Received: true}
}
