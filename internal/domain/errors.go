package domain

import (
	"errors"
	"fmt"
)

// Ошибки домена
var (
	ErrValidation           = errors.New("validation failed")
	ErrAmbiguousCredentials = errors.New("exactly one of email or phone credentials must be set")
	ErrEmptyTaskID          = errors.New("task id cannot be empty")
	ErrNoActiveTask         = errors.New("no task is being watched")
	ErrSessionNotFound      = errors.New("session not found")
	ErrOutcomeNotFound      = errors.New("outcome not found")
)

// Сообщения, которые видит пользователь, если сервер не прислал detail
const (
	MsgSubmissionFailed = "Submission failed"
	MsgStatusFailed     = "Failed to get status"
	MsgCancelFailed     = "Failed to cancel"
	MsgNetworkError     = "Network error"
	MsgSubmitNetwork    = "Network error. Please try again."
	MsgProcessingError  = "An error occurred during processing"
)

// SubmissionError запрос на запуск отклонён или не дошёл до сервера. Не повторяется.
type SubmissionError struct {
	StatusCode int // 0, если ответа не было
	Message    string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("submission error: %s", e.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PollError временная ошибка опроса статуса. Цикл опроса не останавливает.
type PollError struct {
	TaskID     string
	StatusCode int
	Message    string
	Err        error
}

func (e *PollError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("poll error for task %s: %s: %v", e.TaskID, e.Message, e.Err)
	}
	return fmt.Sprintf("poll error for task %s: %s", e.TaskID, e.Message)
}

func (e *PollError) Unwrap() error { return e.Err }

// CancelError сервер отклонил отмену или не ответил. Опрос продолжается.
type CancelError struct {
	TaskID     string
	StatusCode int
	Message    string
	Err        error
}

func (e *CancelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cancel error for task %s: %s: %v", e.TaskID, e.Message, e.Err)
	}
	return fmt.Sprintf("cancel error for task %s: %s", e.TaskID, e.Message)
}

func (e *CancelError) Unwrap() error { return e.Err }

// UserMessage достаёт текст для пользователя из любой ошибки таксономии
func UserMessage(err error) string {
	var subErr *SubmissionError
	var pollErr *PollError
	var cancelErr *CancelError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &subErr):
		return subErr.Message
	case errors.As(err, &pollErr):
		return pollErr.Message
	case errors.As(err, &cancelErr):
		return cancelErr.Message
	default:
		return err.Error()
	}
}
