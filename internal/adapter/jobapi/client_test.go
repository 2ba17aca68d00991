package jobapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plastinin/jobwatch/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.Client(), srv.URL+"/api/", zap.NewNop())
}

func emailRequest() domain.SubmissionRequest {
	return domain.SubmissionRequest{
		SearchQuery:     "golang",
		MaxApplications: 10,
		Email:           &domain.EmailCredentials{Email: "a@b.co", Password: "pw"},
	}
}

func TestSubmit_EmailVariant(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	var gotRequestID string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"task_id":"t-1","status":"PENDING","check_status_url":"/api/jobs/t-1"}`))
	})

	handle, err := client.Submit(context.Background(), emailRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if gotPath != "/api/jobs/submit/email" {
		t.Errorf("path = %q, want /api/jobs/submit/email", gotPath)
	}
	if _, err := uuid.Parse(gotRequestID); err != nil {
		t.Errorf("X-Request-ID = %q, want uuid", gotRequestID)
	}
	if gotBody["email"] != "a@b.co" || gotBody["search_query"] != "golang" {
		t.Errorf("body = %v", gotBody)
	}
	if _, ok := gotBody["phone"]; ok {
		t.Errorf("email body must not carry phone: %v", gotBody)
	}
	if handle.TaskID != "t-1" || handle.CheckStatusURL != "/api/jobs/t-1" {
		t.Errorf("handle = %+v", handle)
	}
}

func TestSubmit_PhoneVariant(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"task_id":"t-2"}`))
	})

	req := domain.SubmissionRequest{
		SearchQuery:     "golang",
		MaxApplications: 5,
		Phone:           &domain.PhoneCredentials{Phone: "9001234567", Country: "RU", Password: "pw"},
	}
	handle, err := client.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if gotPath != "/api/jobs/submit/phone" {
		t.Errorf("path = %q", gotPath)
	}
	if handle.TaskID != "t-2" {
		t.Errorf("TaskID = %q", handle.TaskID)
	}
}

func TestSubmit_ErrorDetail(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"string detail", http.StatusBadRequest, `{"detail":"Invalid search query"}`, "Invalid search query"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"too long"}]}`, "field required; too long"},
		{"no detail", http.StatusInternalServerError, `{}`, domain.MsgSubmissionFailed},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, domain.MsgSubmissionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Submit(context.Background(), emailRequest())
			var subErr *domain.SubmissionError
			if !errors.As(err, &subErr) {
				t.Fatalf("error = %v, want *SubmissionError", err)
			}
			if subErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", subErr.StatusCode, tt.status)
			}
			if got := domain.UserMessage(err); got != tt.wantMsg {
				t.Errorf("UserMessage = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestSubmit_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClientWithHTTP(&http.Client{Timeout: time.Second}, url, zap.NewNop())
	_, err := client.Submit(context.Background(), emailRequest())
	if got := domain.UserMessage(err); got != domain.MsgSubmitNetwork {
		t.Errorf("UserMessage = %q, want %q", got, domain.MsgSubmitNetwork)
	}
}

func TestStatus_DecodesPartialSnapshot(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"task_id":"t-1","state":"PROGRESS","progress":40,"stage":"apply","applied":4}`))
	})

	status, err := client.Status(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if gotPath != "/api/jobs/t-1" {
		t.Errorf("path = %q", gotPath)
	}
	if status.State != domain.TaskStateProgress {
		t.Errorf("State = %q", status.State)
	}
	if status.Progress == nil || *status.Progress != 40 {
		t.Errorf("Progress = %v", status.Progress)
	}
	if status.Applied == nil || *status.Applied != 4 {
		t.Errorf("Applied = %v", status.Applied)
	}
	if status.Total != nil {
		t.Errorf("Total = %v, want nil", *status.Total)
	}
}

func TestStatus_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Task not found"}`))
	})

	_, err := client.Status(context.Background(), "missing")
	var pollErr *domain.PollError
	if !errors.As(err, &pollErr) {
		t.Fatalf("error = %v, want *PollError", err)
	}
	if pollErr.TaskID != "missing" || pollErr.Message != "Task not found" {
		t.Errorf("PollError = %+v", pollErr)
	}
}

func TestStatus_FallbackMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Status(context.Background(), "t-1")
	if got := domain.UserMessage(err); got != domain.MsgStatusFailed {
		t.Errorf("UserMessage = %q, want %q", got, domain.MsgStatusFailed)
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"ok", http.StatusOK, `{"status":"cancelled"}`, ""},
		{"accepted", http.StatusAccepted, ``, ""},
		{"rejected", http.StatusConflict, `{"detail":"Task already finished"}`, "Task already finished"},
		{"no detail", http.StatusInternalServerError, ``, domain.MsgCancelFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotPath string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotMethod, gotPath = r.Method, r.URL.Path
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.Cancel(context.Background(), "t-9")
			if gotMethod != http.MethodPost || gotPath != "/api/jobs/t-9/cancel" {
				t.Errorf("request = %s %s", gotMethod, gotPath)
			}
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Cancel() error = %v", err)
				}
				return
			}
			var cancelErr *domain.CancelError
			if !errors.As(err, &cancelErr) {
				t.Fatalf("error = %v, want *CancelError", err)
			}
			if cancelErr.Message != tt.wantErr {
				t.Errorf("Message = %q, want %q", cancelErr.Message, tt.wantErr)
			}
		})
	}
}

func TestSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"Task already finished"}`))
	})

	if err := client.Cancel(context.Background(), "t-3"); err == nil {
		t.Fatal("Cancel() error = nil")
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name != "jobapi.cancel" {
		t.Errorf("span name = %q", span.Name)
	}
	if span.Status.Code != codes.Error || span.Status.Description != "Task already finished" {
		t.Errorf("span status = %+v", span.Status)
	}

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes {
		attrs[kv.Key] = kv.Value
	}
	if attrs["task.id"].AsString() != "t-3" {
		t.Errorf("task.id = %q", attrs["task.id"].AsString())
	}
	if attrs["http.status_code"].AsInt64() != http.StatusConflict {
		t.Errorf("http.status_code = %d", attrs["http.status_code"].AsInt64())
	}
}
