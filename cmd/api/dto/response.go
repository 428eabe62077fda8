package dto

// ErrorResponseDTO는 공통 에러 응답 형식이다. Error 에는 apperr 코드가 들어간다.
type ErrorResponseDTO struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"post not found"`
	Error   string `json:"error" example:"NOT_FOUND"`
}

// DataResponse is the `{success, data}` envelope.
type DataResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// PaginationDTO describes one page of a listing. Page is 1-based.
type PaginationDTO struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination computes the derived fields.
func NewPagination(page, limit int, total int64) PaginationDTO {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginationDTO{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// ListResponse is the `{success, data, pagination}` envelope.
type ListResponse[T any] struct {
	Success    bool          `json:"success"`
	Data       []T           `json:"data"`
	Pagination PaginationDTO `json:"pagination"`
}

// Page is what list services return; handlers wrap it in ListResponse.
type Page[T any] struct {
	Items      []T
	Pagination PaginationDTO
}

// Concrete envelopes for swagger, which does not read generics.

// PostListResponseDTO swagger:model PostListResponseDTO
type PostListResponseDTO struct {
	Success    bool             `json:"success"`
	Data       []PostSummaryDTO `json:"data"`
	Pagination PaginationDTO    `json:"pagination"`
}

// PostResponseDTO swagger:model PostResponseDTO
type PostResponseDTO struct {
	Success bool          `json:"success"`
	Data    PostDetailDTO `json:"data"`
}
