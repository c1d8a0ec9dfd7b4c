package commons

// Response is the JSON envelope every endpoint answers with. RequestID echoes
// the X-Request-ID of the call so clients can quote it when reporting a failure.
type Response[T any] struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Data      *T       `json:"data,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{Success: true, Message: message, Data: &data}
}

// ErrorResponse carries a human message plus machine-readable codes or
// validation details in Errors.
func ErrorResponse[T any](message string, details ...string) Response[T] {
	return Response[T]{Message: message, Errors: details}
}

func (r Response[T]) WithRequestID(requestID string) Response[T] {
	r.RequestID = requestID
	return r
}
