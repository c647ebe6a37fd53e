// Package response defines the JSON envelope every Milkeyway endpoint
// returns: a status discriminator, the mirrored HTTP code, and either a
// data payload or an error message, never both.
package response

// Envelope status discriminators.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope serialized on every API route.
type Response struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Paged wraps a listing page for the envelope's data slot. The moderation
// queue, audit log and request listings all share this shape.
type Paged struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// Success wraps data in a success envelope.
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     StatusSuccess,
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error wraps a message in an error envelope.
func Error(statusCode int, err string) Response {
	return Response{
		Status:     StatusError,
		StatusCode: statusCode,
		Error:      err,
	}
}
