package domain

import "math"

// DisplayState нормализованное состояние для отображения
type DisplayState string

const (
	DisplayQueued             DisplayState = "QUEUED"
	DisplayRunning            DisplayState = "RUNNING"
	DisplayDone               DisplayState = "DONE"
	DisplayFailed             DisplayState = "FAILED"
	DisplayCaptchaRequired    DisplayState = "CAPTCHA_REQUIRED"
	DisplayInvalidCredentials DisplayState = "INVALID_CREDENTIALS"
	DisplaySoftError          DisplayState = "SOFT_ERROR"
	DisplayCancelled          DisplayState = "CANCELLED" // Синтетическое, сервер его не присылает
	DisplayUnknown            DisplayState = "UNKNOWN"
)

// IsTerminal проверяет, останавливает ли состояние опрос
func (s DisplayState) IsTerminal() bool {
	switch s {
	case DisplayDone, DisplayFailed, DisplayCaptchaRequired, DisplayInvalidCredentials, DisplaySoftError, DisplayCancelled:
		return true
	}
	return false
}

// IsSoftFailure проверяет, получено ли состояние из result.status
func (s DisplayState) IsSoftFailure() bool {
	return s == DisplayCaptchaRequired || s == DisplayInvalidCredentials || s == DisplaySoftError
}

func (s DisplayState) String() string {
	return string(s)
}

// Icon категория иконки статуса
type Icon string

const (
	IconClock    Icon = "clock"
	IconSpinner  Icon = "spinner"
	IconCheck    Icon = "check"
	IconCross    Icon = "cross"
	IconStop     Icon = "stop"
	IconQuestion Icon = "question"
)

var displayTexts = map[DisplayState]string{
	DisplayQueued:             "In Queue",
	DisplayRunning:            "Processing",
	DisplayDone:               "Completed",
	DisplayFailed:             "Failed",
	DisplayCaptchaRequired:    "Captcha Required",
	DisplayInvalidCredentials: "Invalid Credentials",
	DisplaySoftError:          "Error",
	DisplayCancelled:          "Cancelled",
}

var displayIcons = map[DisplayState]Icon{
	DisplayQueued:             IconClock,
	DisplayRunning:            IconSpinner,
	DisplayDone:               IconCheck,
	DisplayFailed:             IconCross,
	DisplayCaptchaRequired:    IconCross,
	DisplayInvalidCredentials: IconCross,
	DisplaySoftError:          IconCross,
	DisplayCancelled:          IconStop,
}

var softFailureStates = map[ResultStatus]DisplayState{
	ResultCaptchaRequired:    DisplayCaptchaRequired,
	ResultInvalidCredentials: DisplayInvalidCredentials,
	ResultError:              DisplaySoftError,
}

var taskStates = map[TaskState]DisplayState{
	TaskStatePending:  DisplayQueued,
	TaskStateProgress: DisplayRunning,
	TaskStateSuccess:  DisplayDone,
	TaskStateFailure:  DisplayFailed,
}

// Normalize переводит снимок статуса в состояние отображения.
// Мягкая ошибка в result.status важнее state.
func Normalize(status TaskStatus) DisplayState {
	if rs, ok := status.SoftFailure(); ok {
		return softFailureStates[rs]
	}
	if ds, ok := taskStates[status.State]; ok {
		return ds
	}
	return DisplayUnknown
}

// DisplayStatus то, что видит пользователь на панели статуса
type DisplayStatus struct {
	TaskID   string       `json:"task_id"`
	State    DisplayState `json:"state"`
	Text     string       `json:"text"`
	Icon     Icon         `json:"icon"`
	Progress float64      `json:"progress"`
	Percent  int          `json:"percent"`
	Stage    string       `json:"stage,omitempty"`
	Applied  *int         `json:"applied,omitempty"`
	Total    *int         `json:"total,omitempty"`
	Message  string       `json:"message,omitempty"` // Сообщение об ошибке, если есть
}

// Apply накладывает снимок на текущее отображение.
// State и прогресс обновляются всегда, stage/applied/total только если пришли.
func (d DisplayStatus) Apply(status TaskStatus) DisplayStatus {
	next := d
	if status.TaskID != "" {
		next.TaskID = status.TaskID
	}

	next.State = Normalize(status)
	next.Message = ""
	if rs, ok := status.SoftFailure(); ok {
		next.Text = textFor(next.State, string(rs))
		next.Message = status.Result.Message
		if next.Message == "" {
			next.Message = MsgProcessingError
		}
	} else {
		next.Text = textFor(next.State, string(status.State))
		if next.State == DisplayFailed && status.Error != "" {
			next.Message = status.Error
		}
	}
	next.Icon = iconFor(next.State)

	next.setProgress(status.ProgressOrZero())

	if status.Stage != "" {
		next.Stage = status.Stage
	}
	if status.Applied != nil {
		applied := *status.Applied
		next.Applied = &applied
	}
	if status.Total != nil {
		total := *status.Total
		next.Total = &total
	}

	return next
}

// Cancelled переводит отображение в синтетическое состояние отмены с нулевым прогрессом
func (d DisplayStatus) Cancelled() DisplayStatus {
	next := d
	next.State = DisplayCancelled
	next.Text = textFor(DisplayCancelled, "")
	next.Icon = iconFor(DisplayCancelled)
	next.Message = ""
	next.setProgress(0)
	return next
}

func (d *DisplayStatus) setProgress(progress float64) {
	d.Progress = progress
	d.Percent = int(math.Round(progress))
}

func textFor(state DisplayState, raw string) string {
	if text, ok := displayTexts[state]; ok {
		return text
	}
	return raw
}

func iconFor(state DisplayState) Icon {
	if icon, ok := displayIcons[state]; ok {
		return icon
	}
	return IconQuestion
}
