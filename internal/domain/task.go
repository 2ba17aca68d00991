package domain

// TaskResult исход, который задача сообщает после выполнения
type TaskResult struct {
	Status  ResultStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// TaskStatus снимок состояния задачи, который возвращает каждый опрос.
// Необязательные поля сделаны указателями, чтобы отличать "нет поля" от нуля.
type TaskStatus struct {
	TaskID   string      `json:"task_id"`
	State    TaskState   `json:"state"`
	Progress *float64    `json:"progress,omitempty"`
	Stage    string      `json:"stage,omitempty"`
	Applied  *int        `json:"applied,omitempty"`
	Total    *int        `json:"total,omitempty"`
	Error    string      `json:"error,omitempty"` // Текст ошибки при FAILURE
	Result   *TaskResult `json:"result,omitempty"`
}

// SoftFailure возвращает статус мягкой ошибки, если он есть в result
func (s TaskStatus) SoftFailure() (ResultStatus, bool) {
	if s.Result == nil || !s.Result.Status.IsSoftFailure() {
		return "", false
	}
	return s.Result.Status, true
}

// ProgressOrZero возвращает прогресс, отсутствующий прогресс считается нулём
func (s TaskStatus) ProgressOrZero() float64 {
	if s.Progress == nil {
		return 0
	}
	return *s.Progress
}
