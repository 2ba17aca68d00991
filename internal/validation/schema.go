package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/plastinin/jobwatch/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

const commonProperties = `
	"search_query": {"type": "string", "minLength": 1, "maxLength": 200},
	"max_applications": {"type": "integer", "minimum": 1, "maximum": 200},
	"answer_req": {"type": "string"},
	"password": {"type": "string", "minLength": 2}`

const emailSchema = `{
	"type": "object",
	"required": ["email", "password", "search_query", "max_applications"],
	"properties": {` + commonProperties + `,
		"email": {"type": "string", "pattern": "^[^\\s@]+@[^\\s@]+\\.[^\\s@]+$"}
	}
}`

const phoneSchema = `{
	"type": "object",
	"required": ["phone", "country", "password", "search_query", "max_applications"],
	"properties": {` + commonProperties + `,
		"phone": {"type": "string", "pattern": "^\\d{9,12}$"},
		"country": {"type": "string", "minLength": 1}
	}
}`

// FieldError ошибка валидации конкретного поля
type FieldError struct {
	Field   string
	Message string
}

// Error ошибка валидации запроса; оборачивает domain.ErrValidation
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: %s", domain.ErrValidation, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return domain.ErrValidation }

// SubmissionValidator проверяет запрос на запуск до отправки в сеть
type SubmissionValidator struct {
	email *gojsonschema.Schema
	phone *gojsonschema.Schema
}

// NewSubmissionValidator компилирует схемы
func NewSubmissionValidator() (*SubmissionValidator, error) {
	email, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(emailSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to load email schema: %w", err)
	}
	phone, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(phoneSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to load phone schema: %w", err)
	}
	return &SubmissionValidator{email: email, phone: phone}, nil
}

// MustSubmissionValidator создаёт валидатор или паникует
func MustSubmissionValidator() *SubmissionValidator {
	v, err := NewSubmissionValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate проверяет запрос по схеме его варианта авторизации
func (v *SubmissionValidator) Validate(req domain.SubmissionRequest) error {
	if err := req.CheckVariant(); err != nil {
		return &Error{Fields: []FieldError{{Field: "credentials", Message: err.Error()}}}
	}

	doc, err := json.Marshal(req.Body())
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	schema := v.phone
	if req.Variant() == domain.VariantEmail {
		schema = v.email
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate: %w", err)
	}

	if result.Valid() {
		return nil
	}

	verr := &Error{}
	for _, desc := range result.Errors() {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return verr
}
