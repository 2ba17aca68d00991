package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outcome итог наблюдения за задачей: чем закончилась сессия мониторинга
type Outcome struct {
	ID         uuid.UUID     `json:"id"`
	TaskID     string        `json:"task_id"`
	State      DisplayState  `json:"state"`
	Message    string        `json:"message,omitempty"`
	Stage      string        `json:"stage,omitempty"`
	Applied    *int          `json:"applied,omitempty"`
	Total      *int          `json:"total,omitempty"`
	Snapshot   DisplayStatus `json:"snapshot"`
	ArchiveKey string        `json:"archive_key,omitempty"` // Ключ снимка в S3
	FinishedAt time.Time     `json:"finished_at"`
}

// NewOutcome создаёт итог из финального отображения
func NewOutcome(view DisplayStatus) (*Outcome, error) {
	if view.TaskID == "" {
		return nil, ErrEmptyTaskID
	}

	return &Outcome{
		ID:         uuid.New(),
		TaskID:     view.TaskID,
		State:      view.State,
		Message:    view.Message,
		Stage:      view.Stage,
		Applied:    view.Applied,
		Total:      view.Total,
		Snapshot:   view,
		FinishedAt: time.Now().UTC(),
	}, nil
}
