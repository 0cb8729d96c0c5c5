package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/fittrack/internal/db"
	"github.com/fittrack/internal/logger"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type handlerEnv struct {
	api    *API
	engine *gin.Engine
	now    time.Time
}

func setupHandlerTest(t *testing.T, now time.Time) *handlerEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open("sqlite", dsn, gormlogger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	env := &handlerEnv{now: now}
	env.api = NewAPI(gdb, Options{
		JWTSecret:  "handler-test-secret",
		TokenTTL:   time.Hour,
		Location:   time.UTC,
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return env.now },
	})
	env.engine = newTestEngine(env.api)
	return env
}

func newTestEngine(api *API) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("session-secret"))))

	r.POST("/auth/register", api.Register)
	r.POST("/auth/login", api.Login)
	r.POST("/auth/logout", api.Logout)

	auth := r.Group("")
	auth.Use(api.AuthRequired())
	auth.GET("/auth/profile", api.Profile)
	auth.POST("/seances", api.CreateSeance)
	auth.GET("/seances", api.ListSeances)
	auth.GET("/seances/:id", api.GetSeance)
	auth.PUT("/seances/:id", api.UpdateSeance)
	auth.DELETE("/seances/:id", api.DeleteSeance)
	auth.GET("/statistics/weekly", api.GetWeeklyStats)
	auth.GET("/statistics/monthly", api.GetMonthlyStats)
	auth.GET("/statistics/compare", api.CompareSeances)
	auth.GET("/statistics/calories-by-activity", api.GetCaloriesByActivity)
	auth.POST("/goals", api.CreateGoal)
	auth.GET("/goals/active", api.GetActiveGoal)
	auth.GET("/goals/history", api.GetGoalHistory)
	auth.DELETE("/goals/active", api.DeleteActiveGoal)
	auth.GET("/goals/check-progress", api.CheckGoalProgress)
	return r
}

func (env *handlerEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := env.api.tokens.Issue(userID)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func (env *handlerEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = bytes.NewBufferString(v)
		default:
			payload, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("failed to marshal body: %v", err)
			}
			reader = bytes.NewReader(payload)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func (env *handlerEnv) seedSeance(t *testing.T, userID string, typ int, duration, distance, calories float64, date time.Time) db.Seance {
	t.Helper()
	seance := db.Seance{UserID: userID, Type: typ, Duration: duration, Distance: distance, Calories: calories, Date: date}
	if err := db.NewSeanceStore(env.api.DB()).Create(context.Background(), &seance); err != nil {
		t.Fatalf("failed to seed seance: %v", err)
	}
	return seance
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	expectStatus(t, w, status)
	if got := decodeBody(t, w)["error"]; got != message {
		t.Fatalf("expected error %q, got %v", message, got)
	}
}
