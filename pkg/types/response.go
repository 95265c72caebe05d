package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// PageInfo accompanies cursor-paginated list payloads.
type PageInfo struct {
	NextCursor string `json:"nextCursor,omitempty"`
	Limit      int    `json:"limit"`
}
