package handler

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fittrack/internal/db"
	"github.com/fittrack/internal/logger"
	"github.com/google/uuid"
)

// closeStore 关闭底层连接，使后续所有存储调用失败，并捕获日志输出
func closeStore(t *testing.T, env *handlerEnv) *bytes.Buffer {
	t.Helper()
	if err := db.Close(env.api.DB()); err != nil {
		t.Fatalf("failed to close test database: %v", err)
	}
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(io.Discard) })
	return &buf
}

func TestStatisticsStoreFailureHidesDetails(t *testing.T) {
	env := setupHandlerTest(t, time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC))
	token := env.token(t, "u1")
	logs := closeStore(t, env)

	compare := "/statistics/compare?seance1=" + uuid.NewString() + "&seance2=" + uuid.NewString()
	tests := []struct {
		path    string
		message string
		logged  string
	}{
		{path: "/statistics/weekly", message: "Error retrieving weekly statistics", logged: "weekly stats failed"},
		{path: "/statistics/monthly", message: "Error retrieving monthly statistics", logged: "monthly stats failed"},
		{path: "/statistics/calories-by-activity", message: "Error retrieving calories by activity type", logged: "calories by activity failed"},
		{path: compare, message: "Error comparing sessions", logged: "compare seances failed"},
	}

	for _, tt := range tests {
		t.Run(tt.logged, func(t *testing.T) {
			logs.Reset()
			w := env.do(t, http.MethodGet, tt.path, token, nil)
			expectStatus(t, w, http.StatusInternalServerError)
			if strings.Contains(w.Body.String(), "sql:") {
				t.Fatalf("response leaks store error: %s", w.Body.String())
			}

			body := decodeBody(t, w)
			if body["success"] != false || body["message"] != tt.message {
				t.Fatalf("unexpected envelope: %v", body)
			}
			if _, ok := body["error"]; ok {
				t.Fatalf("expected no error detail, got %v", body["error"])
			}

			out := logs.String()
			if !strings.Contains(out, tt.logged) || !strings.Contains(out, "user=u1") {
				t.Fatalf("expected failure to be logged with user, got %q", out)
			}
		})
	}
}

func TestGoalAndSeanceStoreFailureHidesDetails(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	env := setupHandlerTest(t, now)
	token := env.token(t, "u1")
	logs := closeStore(t, env)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{name: "create goal", method: http.MethodPost, path: "/goals", body: goalBody(1, 1, 10000, now, now.AddDate(0, 0, 7))},
		{name: "active goal", method: http.MethodGet, path: "/goals/active"},
		{name: "goal history", method: http.MethodGet, path: "/goals/history"},
		{name: "delete goal", method: http.MethodDelete, path: "/goals/active"},
		{name: "check progress", method: http.MethodGet, path: "/goals/check-progress"},
		{name: "list seances", method: http.MethodGet, path: "/seances"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			w := env.do(t, tt.method, tt.path, token, tt.body)
			expectError(t, w, http.StatusInternalServerError, "Internal server error")
			if strings.Contains(w.Body.String(), "sql:") {
				t.Fatalf("response leaks store error: %s", w.Body.String())
			}
			if out := logs.String(); !strings.Contains(out, "failed") || !strings.Contains(out, "user=u1") {
				t.Fatalf("expected failure to be logged with user, got %q", out)
			}
		})
	}
}
