package handlers

// ErrorResponse is the standard API error body (message only).
type ErrorResponse struct {
	Message string `json:"message"`
}

// SuccessResponse is the standard API success body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
