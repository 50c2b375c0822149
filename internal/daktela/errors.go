package daktela

import "fmt"

// APIError is any transport or provider failure from a remote call, other
// than the 404-on-single-fetch case which is reported as absence. Status is
// zero when the failure happened before an HTTP status was available.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("daktela: %s (HTTP %d) [endpoint: %s]", e.Message, e.Status, e.Endpoint)
	}
	return fmt.Sprintf("daktela: %s [endpoint: %s]", e.Message, e.Endpoint)
}

// Hint returns actionable guidance for the error's status code, empty when
// there is nothing useful to say.
func (e *APIError) Hint() string {
	switch e.Status {
	case 401:
		return "Authentication failed. Check that DAKTELA_USERNAME/DAKTELA_PASSWORD or DAKTELA_ACCESS_TOKEN are correct."
	case 403:
		return fmt.Sprintf("Access denied to '%s'. The configured user may lack read permission for this resource in Daktela admin.", e.Endpoint)
	case 404:
		return fmt.Sprintf("The endpoint '%s' was not found. This may indicate an unsupported Daktela version or misconfigured URL.", e.Endpoint)
	case 429:
		return "Rate limit exceeded. Wait a moment and retry with a smaller page size (lower 'take' value)."
	case 500, 502, 503:
		return "Daktela server error. The instance may be temporarily unavailable. Try again shortly."
	}
	return ""
}
