package dto

import (
	"time"

	"github.com/plastinin/jobwatch/internal/domain"
)

// OutcomeResponse итог наблюдения
type OutcomeResponse struct {
	ID         string         `json:"id"`
	TaskID     string         `json:"task_id"`
	State      string         `json:"state"`
	Message    string         `json:"message,omitempty"`
	Stage      string         `json:"stage,omitempty"`
	Applied    *int           `json:"applied,omitempty"`
	Total      *int           `json:"total,omitempty"`
	Snapshot   StatusResponse `json:"snapshot"`
	ArchiveKey string         `json:"archive_key,omitempty"`
	FinishedAt time.Time      `json:"finished_at"`
}

// OutcomeFromDomain конвертирует доменную модель в DTO
func OutcomeFromDomain(o *domain.Outcome) *OutcomeResponse {
	return &OutcomeResponse{
		ID:         o.ID.String(),
		TaskID:     o.TaskID,
		State:      o.State.String(),
		Message:    o.Message,
		Stage:      o.Stage,
		Applied:    o.Applied,
		Total:      o.Total,
		Snapshot:   StatusFromDomain(o.Snapshot),
		ArchiveKey: o.ArchiveKey,
		FinishedAt: o.FinishedAt,
	}
}

// OutcomeListResponse ответ со списком итогов
type OutcomeListResponse struct {
	Outcomes   []*OutcomeResponse `json:"outcomes"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// OutcomeListFromDomain конвертирует результат списка в DTO
func OutcomeListFromDomain(result *domain.OutcomeListResult) *OutcomeListResponse {
	outcomes := make([]*OutcomeResponse, len(result.Outcomes))
	for i, o := range result.Outcomes {
		outcomes[i] = OutcomeFromDomain(o)
	}

	return &OutcomeListResponse{
		Outcomes:   outcomes,
		Total:      result.Total,
		Page:       result.Pagination.Page,
		PageSize:   result.Pagination.PageSize,
		TotalPages: result.TotalPages(),
	}
}
