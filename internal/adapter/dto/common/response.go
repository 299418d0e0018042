package common

// PaginationResponse represents pagination metadata
type PaginationResponse struct {
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalItems int64 `json:"total_items"`
}

// ListResponse represents a paginated list response
type ListResponse struct {
	Items      interface{}         `json:"items"`
	Pagination *PaginationResponse `json:"pagination,omitempty"`
}

// MessageResponse is a bare confirmation
type MessageResponse struct {
	Message string `json:"message"`
}
