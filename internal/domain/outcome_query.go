package domain

import "strconv"

// Размеры страницы истории итогов
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination страница истории итогов
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination приводит номер и размер страницы к допустимым значениям
func NewPagination(page, pageSize int) Pagination {
	p := Pagination{Page: max(page, 1), PageSize: pageSize}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// ParsePagination разбирает параметры запроса ?page=&page_size=; мусор заменяется значениями по умолчанию
func ParsePagination(page, pageSize string) Pagination {
	n, _ := strconv.Atoi(page)
	size, _ := strconv.Atoi(pageSize)
	return NewPagination(n, size)
}

// Offset смещение для SQL
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit лимит для SQL
func (p Pagination) Limit() int {
	return p.PageSize
}

// OutcomeFilter фильтры истории итогов
type OutcomeFilter struct {
	State  *DisplayState `json:"state,omitempty"`
	TaskID string        `json:"task_id,omitempty"`
}

// OutcomeListResult страница истории с общим количеством
type OutcomeListResult struct {
	Outcomes   []*Outcome `json:"outcomes"`
	Total      int        `json:"total"`
	Pagination Pagination `json:"pagination"`
}

// TotalPages количество страниц при текущем размере страницы
func (r *OutcomeListResult) TotalPages() int {
	if r.Pagination.PageSize <= 0 {
		return 0
	}
	return (r.Total + r.Pagination.PageSize - 1) / r.Pagination.PageSize
}
