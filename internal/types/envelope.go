package types

// Envelope wraps every API response body.
type Envelope struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
	OK    bool   `json:"ok"`
}

func Success(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

func Failure(err Error) Envelope {
	return Envelope{OK: false, Error: &err}
}
