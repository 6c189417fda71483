package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Count      *int        `json:"count,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Code       string      `json:"code,omitempty"`    // machine-readable error code
	Details    interface{} `json:"details,omitempty"` // offending ids on validation errors
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Success:    true,
		Data:       data,
	}
}

// Ack returns a success response for write operations that report how many records they touched
func Ack(statusCode int, message string, count int) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Success:    true,
		Message:    message,
		Count:      &count,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// ErrorWithDetails is Error plus a code and structured details
func ErrorWithDetails(statusCode int, code, err string, details interface{}) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
		Code:       code,
		Details:    details,
	}
}

// PageMeta describes one page of a paginated listing
type PageMeta struct {
	Items interface{} `json:"items"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int64       `json:"total"`
}

// SuccessWithPagination wraps a page of items with its paging metadata
func SuccessWithPagination(statusCode int, items interface{}, page, limit int, total int64) Response {
	return Success(statusCode, PageMeta{Items: items, Page: page, Limit: limit, Total: total})
}
