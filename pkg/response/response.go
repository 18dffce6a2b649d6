// Package response defines the JSON envelope shared by every tax engine
// endpoint, from rule management to job status and artifact links.
package response

// Response is the envelope every handler writes. Business verdicts such as
// NAO_CONFORME still ride in Data under a "success" status; Error is
// reserved for request and infrastructure failures.
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success wraps data in a success envelope
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error wraps an error message in an error envelope
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}
