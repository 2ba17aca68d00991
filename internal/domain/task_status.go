package domain

// TaskState инфраструктурное состояние задачи на сервере
type TaskState string

const (
	TaskStatePending  TaskState = "PENDING"  // Задача в очереди
	TaskStateProgress TaskState = "PROGRESS" // Задача выполняется
	TaskStateSuccess  TaskState = "SUCCESS"  // Задача завершена
	TaskStateFailure  TaskState = "FAILURE"  // Задача упала
)

// IsValid проверяет, что состояние известно клиенту
func (s TaskState) IsValid() bool {
	switch s {
	case TaskStatePending, TaskStateProgress, TaskStateSuccess, TaskStateFailure:
		return true
	}
	return false
}

// IsFinal проверяет, является ли состояние финальным
func (s TaskState) IsFinal() bool {
	return s == TaskStateSuccess || s == TaskStateFailure
}

func (s TaskState) String() string {
	return string(s)
}

// ResultStatus исход задачи на уровне предметной области (поле result.status)
type ResultStatus string

const (
	ResultStarted            ResultStatus = "started"
	ResultSuccess            ResultStatus = "success"
	ResultCaptchaRequired    ResultStatus = "captcha required"
	ResultInvalidCredentials ResultStatus = "invalid credentials"
	ResultError              ResultStatus = "error"
)

// IsSoftFailure проверяет, является ли исход мягкой ошибкой.
// Мягкая ошибка приходит внутри успешного ответа и не отражается в state.
func (s ResultStatus) IsSoftFailure() bool {
	switch s {
	case ResultCaptchaRequired, ResultInvalidCredentials, ResultError:
		return true
	}
	return false
}

// Этапы выполнения задачи на сервере. Поле stage свободное, список не исчерпывающий.
const (
	StageAuth     = "auth"
	StageSearch   = "search"
	StageParsing  = "parsing vacancies"
	StageApply    = "apply"
	StageComplete = "complete"
	StageWaiting  = "waiting"
)
