package dto

import (
	"strings"

	"github.com/plastinin/jobwatch/internal/domain"
)

// CreateSessionRequest запрос на создание сессии наблюдения.
// Если указан task_id, наблюдение начинается за уже запущенной задачей,
// иначе по полям формы отправляется новая задача.
type CreateSessionRequest struct {
	TaskID string `json:"task_id,omitempty"`

	SearchQuery       string `json:"search_query"`
	MaxApplications   int    `json:"max_applications"`
	AnswerRequirement string `json:"answer_req"`

	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Country  string `json:"country,omitempty"`
	Password string `json:"password"`
}

// ToDomain собирает запрос на отправку. Непустой email выбирает вариант email.
func (r *CreateSessionRequest) ToDomain() domain.SubmissionRequest {
	query := strings.TrimSpace(r.SearchQuery)
	if query == "" {
		query = domain.DefaultSearchQuery
	}

	req := domain.SubmissionRequest{
		SearchQuery:       query,
		MaxApplications:   r.MaxApplications,
		AnswerRequirement: r.AnswerRequirement,
	}

	if r.Email != "" {
		req.Email = &domain.EmailCredentials{Email: r.Email, Password: r.Password}
	} else {
		req.Phone = &domain.PhoneCredentials{Phone: r.Phone, Country: r.Country, Password: r.Password}
	}
	return req
}

// StatusResponse отображаемое состояние задачи
type StatusResponse struct {
	TaskID   string  `json:"task_id,omitempty"`
	State    string  `json:"state,omitempty"`
	Text     string  `json:"text,omitempty"`
	Icon     string  `json:"icon,omitempty"`
	Progress float64 `json:"progress"`
	Percent  int     `json:"percent"`
	Stage    string  `json:"stage,omitempty"`
	Applied  *int    `json:"applied,omitempty"`
	Total    *int    `json:"total,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// StatusFromDomain конвертирует отображение в DTO
func StatusFromDomain(v domain.DisplayStatus) StatusResponse {
	return StatusResponse{
		TaskID:   v.TaskID,
		State:    v.State.String(),
		Text:     v.Text,
		Icon:     string(v.Icon),
		Progress: v.Progress,
		Percent:  v.Percent,
		Stage:    v.Stage,
		Applied:  v.Applied,
		Total:    v.Total,
		Message:  v.Message,
	}
}

// SessionResponse состояние сессии наблюдения
type SessionResponse struct {
	ID             string         `json:"id"`
	TaskID         string         `json:"task_id,omitempty"`
	CheckStatusURL string         `json:"check_status_url,omitempty"`
	Polling        bool           `json:"polling"`
	Stopped        bool           `json:"stopped"`
	PollErrors     int            `json:"poll_errors"`
	LastError      string         `json:"last_error,omitempty"`
	Status         StatusResponse `json:"status"`
}
