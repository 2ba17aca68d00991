package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/plastinin/jobwatch/internal/config"
	"github.com/plastinin/jobwatch/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/plastinin/jobwatch/internal/adapter/jobapi"

// maxErrorBody сколько байт ответа читать при ошибке
const maxErrorBody = 64 << 10

// Client HTTP клиент сервиса задач
type Client struct {
	httpClient *http.Client
	baseURL    string
	tracer     trace.Tracer
	logger     *zap.Logger
}

// NewClient создаёт новый экземпляр Client
func NewClient(cfg config.JobAPIConfig, logger *zap.Logger) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: cfg.RequestTimeout}, cfg.BaseURL, logger)
}

// NewClientWithHTTP создаёт клиент поверх готового http.Client
func NewClientWithHTTP(httpClient *http.Client, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tracer:     otel.Tracer(tracerName),
		logger:     logger,
	}
}

// submitResponse ответ на запуск задачи
type submitResponse struct {
	TaskID         string `json:"task_id"`
	Status         string `json:"status,omitempty"`
	CheckStatusURL string `json:"check_status_url,omitempty"`
}

// errorResponse ошибка сервиса
type errorResponse struct {
	Detail any `json:"detail"`
}

// Submit отправляет запрос на эндпоинт, выбранный по варианту авторизации
func (c *Client) Submit(ctx context.Context, req domain.SubmissionRequest) (domain.TaskHandle, error) {
	ctx, span := c.tracer.Start(ctx, "jobapi.submit", trace.WithAttributes(
		attribute.String("job.variant", string(req.Variant())),
		attribute.Int("job.max_applications", req.MaxApplications),
	))
	defer span.End()

	body, err := json.Marshal(req.Body())
	if err != nil {
		return domain.TaskHandle{}, c.fail(span, &domain.SubmissionError{Message: domain.MsgSubmissionFailed, Err: err})
	}

	resp, err := c.do(ctx, http.MethodPost, req.Endpoint(), body)
	if err != nil {
		return domain.TaskHandle{}, c.fail(span, &domain.SubmissionError{Message: domain.MsgSubmitNetwork, Err: err})
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if !isSuccess(resp.StatusCode) {
		return domain.TaskHandle{}, c.fail(span, &domain.SubmissionError{
			StatusCode: resp.StatusCode,
			Message:    readDetail(resp.Body, domain.MsgSubmissionFailed),
		})
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.TaskHandle{}, c.fail(span, &domain.SubmissionError{
			StatusCode: resp.StatusCode,
			Message:    domain.MsgSubmissionFailed,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		})
	}

	span.SetAttributes(attribute.String("task.id", out.TaskID))

	return domain.TaskHandle{
		TaskID:         out.TaskID,
		CheckStatusURL: out.CheckStatusURL,
	}, nil
}

// Status запрашивает снимок статуса задачи. Повторов нет.
func (c *Client) Status(ctx context.Context, taskID string) (*domain.TaskStatus, error) {
	ctx, span := c.tracer.Start(ctx, "jobapi.status", trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, c.fail(span, &domain.PollError{TaskID: taskID, Message: domain.MsgNetworkError, Err: err})
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if !isSuccess(resp.StatusCode) {
		return nil, c.fail(span, &domain.PollError{
			TaskID:     taskID,
			StatusCode: resp.StatusCode,
			Message:    readDetail(resp.Body, domain.MsgStatusFailed),
		})
	}

	var status domain.TaskStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, c.fail(span, &domain.PollError{
			TaskID:     taskID,
			StatusCode: resp.StatusCode,
			Message:    domain.MsgNetworkError,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		})
	}

	span.SetAttributes(attribute.String("task.state", status.State.String()))

	return &status, nil
}

// Cancel просит сервис отменить задачу. Любой 2xx считается успехом.
func (c *Client) Cancel(ctx context.Context, taskID string) error {
	ctx, span := c.tracer.Start(ctx, "jobapi.cancel", trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	resp, err := c.do(ctx, http.MethodPost, "/jobs/"+url.PathEscape(taskID)+"/cancel", nil)
	if err != nil {
		return c.fail(span, &domain.CancelError{TaskID: taskID, Message: domain.MsgNetworkError, Err: err})
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if !isSuccess(resp.StatusCode) {
		return c.fail(span, &domain.CancelError{
			TaskID:     taskID,
			StatusCode: resp.StatusCode,
			Message:    readDetail(resp.Body, domain.MsgCancelFailed),
		})
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	c.logger.Debug("Job API request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, domain.UserMessage(err))
	return err
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// readDetail достаёт detail из тела ошибки, иначе возвращает fallback.
// FastAPI отдаёт detail строкой, а ошибки валидации списком объектов.
func readDetail(body io.Reader, fallback string) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return fallback
	}

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err != nil {
		return fallback
	}

	switch detail := er.Detail.(type) {
	case string:
		if detail != "" {
			return detail
		}
	case []any:
		msgs := make([]string, 0, len(detail))
		for _, item := range detail {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["msg"].(string); ok {
					msgs = append(msgs, msg)
				}
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallback
}
