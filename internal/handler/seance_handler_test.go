package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCreateSeance(t *testing.T) {
	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	env := setupHandlerTest(t, now)
	token := env.token(t, "u1")

	w := env.do(t, http.MethodPost, "/seances", token, map[string]any{
		"type":     1,
		"duration": 45,
		"distance": 8000,
		"calories": 520,
		"notes":    "<i>hills</i>",
	})
	expectStatus(t, w, http.StatusCreated)

	body := decodeBody(t, w)
	if body["user"] != "u1" {
		t.Fatalf("expected owner u1, got %v", body["user"])
	}
	if body["date"] != "2025-03-12T09:00:00Z" {
		t.Fatalf("expected default date, got %v", body["date"])
	}
	if body["notes"] != "hills" {
		t.Fatalf("expected sanitized notes, got %v", body["notes"])
	}
}

func TestCreateSeanceValidation(t *testing.T) {
	env := setupHandlerTest(t, time.Now())
	token := env.token(t, "u1")

	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{name: "type", body: map[string]any{"type": 5, "duration": 10, "distance": 1, "calories": 1}, message: "Type must be 1 (Running), 2 (Cycling), or 3 (Strength)"},
		{name: "duration", body: map[string]any{"type": 1, "duration": 0, "distance": 1, "calories": 1}, message: "Duration must be greater than 0"},
		{name: "distance", body: map[string]any{"type": 1, "duration": 10, "calories": 1}, message: "Distance is required"},
		{name: "calories", body: map[string]any{"type": 1, "duration": 10, "distance": 1, "calories": -3}, message: "Calories must be greater than or equal to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/seances", token, tt.body)
			expectError(t, w, http.StatusBadRequest, tt.message)
		})
	}
}

func TestListSeancesFilters(t *testing.T) {
	env := setupHandlerTest(t, time.Now())
	token := env.token(t, "u1")
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	env.seedSeance(t, "u1", 1, 30, 5000, 300, base)
	env.seedSeance(t, "u1", 2, 60, 20000, 500, base.AddDate(0, 0, 1))
	env.seedSeance(t, "u1", 1, 30, 5000, 300, base.AddDate(0, 0, 5))
	env.seedSeance(t, "u2", 1, 30, 5000, 300, base)

	count := func(path string) int {
		w := env.do(t, http.MethodGet, path, token, nil)
		expectStatus(t, w, http.StatusOK)
		seances, _ := decodeBody(t, w)["seances"].([]any)
		return len(seances)
	}

	if got := count("/seances"); got != 3 {
		t.Fatalf("expected 3 seances, got %d", got)
	}
	if got := count("/seances?type=1"); got != 2 {
		t.Fatalf("expected 2 running seances, got %d", got)
	}
	if got := count("/seances?from=2025-03-11&to=2025-03-12"); got != 1 {
		t.Fatalf("expected 1 seance in range, got %d", got)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/seances?type=run", token, nil), http.StatusBadRequest)
	expectError(t, env.do(t, http.MethodGet, "/seances?from=tomorrow", token, nil), http.StatusBadRequest, "Invalid from date format")
}

func TestSeanceAccessRules(t *testing.T) {
	env := setupHandlerTest(t, time.Now())
	mine := env.token(t, "u1")
	theirs := env.token(t, "u2")
	seance := env.seedSeance(t, "u1", 3, 40, 0, 250, time.Now().Add(-time.Hour))

	expectStatus(t, env.do(t, http.MethodGet, "/seances/"+seance.ID, mine, nil), http.StatusOK)
	expectError(t, env.do(t, http.MethodGet, "/seances/"+seance.ID, theirs, nil), http.StatusForbidden, "You don't have permission to access this seance")
	expectError(t, env.do(t, http.MethodGet, "/seances/not-a-uuid", mine, nil), http.StatusBadRequest, "Invalid seance ID")
	expectError(t, env.do(t, http.MethodGet, "/seances/"+uuid.NewString(), mine, nil), http.StatusNotFound, "Seance not found")
	expectStatus(t, env.do(t, http.MethodDelete, "/seances/"+seance.ID, theirs, nil), http.StatusForbidden)
}

func TestUpdateAndDeleteSeance(t *testing.T) {
	env := setupHandlerTest(t, time.Now())
	token := env.token(t, "u1")
	seance := env.seedSeance(t, "u1", 1, 30, 5000, 300, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))

	w := env.do(t, http.MethodPut, "/seances/"+seance.ID, token, map[string]any{
		"type":     2,
		"duration": 75,
		"distance": 25000,
		"calories": 640,
	})
	expectStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	if body["type"] != float64(2) || body["distance"] != float64(25000) {
		t.Fatalf("unexpected updated seance: %v", body)
	}
	if body["date"] != "2025-03-10T08:00:00Z" {
		t.Fatalf("expected date to be preserved, got %v", body["date"])
	}

	expectStatus(t, env.do(t, http.MethodDelete, "/seances/"+seance.ID, token, nil), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/seances/"+seance.ID, token, nil), http.StatusNotFound)
}

func TestCreateSeanceTypeDecoding(t *testing.T) {
	env := setupHandlerTest(t, time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC))
	token := env.token(t, "u1")

	w := env.do(t, http.MethodPost, "/seances", token, map[string]any{"type": "2", "duration": 10, "distance": 1, "calories": 1})
	expectError(t, w, http.StatusBadRequest, "Type must be 1 (Running), 2 (Cycling), or 3 (Strength)")

	w = env.do(t, http.MethodPost, "/seances", token, map[string]any{"type": 2.5, "duration": 10, "distance": 1, "calories": 1})
	expectError(t, w, http.StatusBadRequest, "Type must be 1 (Running), 2 (Cycling), or 3 (Strength)")

	w = env.do(t, http.MethodPost, "/seances", token, `{"type": 2.0, "duration": 10, "distance": 1, "calories": 1}`)
	expectStatus(t, w, http.StatusCreated)
	if got := decodeBody(t, w)["type"]; got != float64(2) {
		t.Fatalf("expected type 2, got %v", got)
	}
}
