package domain

const (
	MinApplications = 1
	MaxApplications = 200

	DefaultSearchQuery = "system analyst"
)

// Эндпоинты отправки задачи
const (
	EndpointSubmitEmail = "/jobs/submit/email"
	EndpointSubmitPhone = "/jobs/submit/phone"
)

// CredentialVariant способ авторизации на стороне сервиса
type CredentialVariant string

const (
	VariantEmail CredentialVariant = "email"
	VariantPhone CredentialVariant = "phone"
)

// EmailCredentials авторизация по почте
type EmailCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PhoneCredentials авторизация по телефону (номер без кода страны)
type PhoneCredentials struct {
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	Password string `json:"password"`
}

// SubmissionRequest запрос на запуск задачи откликов.
// Должен быть заполнен ровно один из вариантов авторизации.
type SubmissionRequest struct {
	SearchQuery       string
	MaxApplications   int
	AnswerRequirement string

	Email *EmailCredentials
	Phone *PhoneCredentials
}

// Variant возвращает вариант авторизации. Наличие email однозначно выбирает email.
func (r SubmissionRequest) Variant() CredentialVariant {
	if r.Email != nil {
		return VariantEmail
	}
	return VariantPhone
}

// Endpoint возвращает путь, на который уходит запрос
func (r SubmissionRequest) Endpoint() string {
	if r.Variant() == VariantEmail {
		return EndpointSubmitEmail
	}
	return EndpointSubmitPhone
}

// Body собирает тело запроса в формате API
func (r SubmissionRequest) Body() map[string]any {
	body := map[string]any{
		"search_query":     r.SearchQuery,
		"max_applications": r.MaxApplications,
		"answer_req":       r.AnswerRequirement,
	}

	if r.Variant() == VariantEmail {
		body["email"] = r.Email.Email
		body["password"] = r.Email.Password
		return body
	}

	if r.Phone != nil {
		body["phone"] = r.Phone.Phone
		body["country"] = r.Phone.Country
		body["password"] = r.Phone.Password
	}
	return body
}

// CheckVariant проверяет, что заполнен ровно один вариант авторизации
func (r SubmissionRequest) CheckVariant() error {
	hasEmail := r.Email != nil
	hasPhone := r.Phone != nil
	if hasEmail == hasPhone {
		return ErrAmbiguousCredentials
	}
	return nil
}

// TaskHandle идентификатор запущенной задачи. Создаётся один раз после успешной отправки.
type TaskHandle struct {
	TaskID         string
	CheckStatusURL string
}
