package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fittrack/internal/db"
	"github.com/fittrack/internal/service"
)

func setupCommandEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "data", "fittrack.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("GIN_MODE", "test")
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateUserCommand(t *testing.T) {
	setupCommandEnv(t)

	out, err := runCommand(t, "create-user", "--email", "Coach@Example.com", "--password", "secret1")
	if err != nil {
		t.Fatalf("create-user failed: %v", err)
	}
	if !strings.Contains(out, "created user coach@example.com") {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, err := runCommand(t, "create-user", "--email", "coach@example.com", "--password", "secret1"); err == nil {
		t.Fatalf("expected duplicate account to fail")
	}

	if _, err := runCommand(t, "create-user", "--email", "coach@example.com"); err == nil {
		t.Fatalf("expected missing password flag to fail")
	}
}

func TestSweepGoalsCommand(t *testing.T) {
	setupCommandEnv(t)

	// 先建表并写入一个已过期的进行中目标
	if err := db.Init("sqlite", os.Getenv("DATABASE_PATH")); err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	past := time.Now().Add(-48 * time.Hour)
	goal := db.Goal{
		UserID:     "u1",
		SeanceType: int(service.SeanceRunning),
		GoalType:   int(service.GoalDistance),
		GoalValue:  1000,
		StartDate:  past.Add(-24 * time.Hour),
		EndDate:    past,
		IsActive:   true,
	}
	if err := db.NewGoalStore(db.DB).Create(context.Background(), &goal); err != nil {
		t.Fatalf("failed to seed goal: %v", err)
	}
	if err := db.Close(db.DB); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	out, err := runCommand(t, "sweep-goals")
	if err != nil {
		t.Fatalf("sweep-goals failed: %v", err)
	}
	if !strings.Contains(out, "closed 1 expired goal(s)") {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = runCommand(t, "sweep-goals")
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if !strings.Contains(out, "closed 0 expired goal(s)") {
		t.Fatalf("expected second sweep to be a no-op, got %q", out)
	}
}

func TestSeedDemoCommand(t *testing.T) {
	setupCommandEnv(t)

	out, err := runCommand(t, "seed-demo", "--days", "14")
	if err != nil {
		t.Fatalf("seed-demo failed: %v", err)
	}
	// 14 天中第 7、14 天为休息日
	if !strings.Contains(out, "created 12 seances for "+demoEmail) {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = runCommand(t, "seed-demo")
	if err != nil {
		t.Fatalf("second seed-demo failed: %v", err)
	}
	if !strings.Contains(out, "already present") {
		t.Fatalf("expected second run to skip, got %q", out)
	}
}
