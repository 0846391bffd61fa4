// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// IDResponse carries the id of a created resource.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a simple acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListResponse wraps list results with paging metadata.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
