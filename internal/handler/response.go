package handler

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// ListResponse wraps a page of results with the total row count.
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
}

func NewSuccessResponse(data interface{}) Response {
	return Response{Success: true, Data: data}
}

func NewMessageResponse(message string) Response {
	return Response{Success: true, Message: message}
}

func NewErrorResponse(message string, errs ...string) Response {
	return Response{Success: false, Message: message, Errors: errs}
}
