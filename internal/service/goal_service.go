package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fittrack/internal/db"
	"github.com/fittrack/internal/logger"
)

const day = 24 * time.Hour

// GoalStore 是目标引擎依赖的存储能力
// CloseIfActive 必须是条件更新：仅当目标仍为进行中时才写入关闭状态
type GoalStore interface {
	Create(ctx context.Context, goal *db.Goal) error
	FindByID(ctx context.Context, id string) (*db.Goal, error)
	FindActiveByOwner(ctx context.Context, userID string) (*db.Goal, error)
	FindClosedByOwner(ctx context.Context, userID string) ([]db.Goal, error)
	FindExpiredActive(ctx context.Context, before time.Time) ([]db.Goal, error)
	CloseIfActive(ctx context.Context, id string, achieved bool) (bool, error)
	DeleteActiveByOwner(ctx context.Context, userID string) error
}

// GoalInput 定义创建目标时的输入，GoalValue 为 nil 表示未提供
type GoalInput struct {
	SeanceType int
	GoalType   int
	GoalValue  *float64
	StartDate  string
	EndDate    string
}

// ProgressStatus 描述一次进度检查的结论
type ProgressStatus string

const (
	// ProgressNone 表示没有进行中的目标
	ProgressNone ProgressStatus = "none"
	// ProgressOpen 表示目标仍在期限内
	ProgressOpen ProgressStatus = "open"
	// ProgressClosed 表示本次检查完成了目标的关闭评估
	ProgressClosed ProgressStatus = "closed"
)

// ProgressDays 为目标区间的天数统计
type ProgressDays struct {
	Total     int `json:"total"`
	Elapsed   int `json:"elapsed"`
	Remaining int `json:"remaining"`
}

// Progress 为进行中目标的当前进度
type Progress struct {
	Current     float64      `json:"current"`
	Target      float64      `json:"target"`
	Percentage  int          `json:"percentage"`
	Days        ProgressDays `json:"days"`
	IsCompleted bool         `json:"isCompleted"`
}

// ClosingResult 为到期目标的最终评估
type ClosingResult struct {
	IsAchieved bool    `json:"isAchieved"`
	Actual     float64 `json:"actual"`
	Target     float64 `json:"target"`
}

// ProgressReport 汇总 CheckProgress 的结果
type ProgressReport struct {
	Status   ProgressStatus
	Goal     *db.Goal
	Progress *Progress
	Closing  *ClosingResult
}

// GoalService 负责目标的创建、查询与进度评估
// 每个用户最多一个进行中的目标；到期目标在读取时惰性关闭
type GoalService struct {
	goals   GoalStore
	seances SeanceReader
	loc     *time.Location
	now     func() time.Time
}

// NewGoalService 构造 GoalService
func NewGoalService(goals GoalStore, seances SeanceReader, loc *time.Location) *GoalService {
	if loc == nil {
		loc = time.Local
	}
	return &GoalService{goals: goals, seances: seances, loc: loc, now: time.Now}
}

// WithClock 替换时间来源，主要用于测试
func (s *GoalService) WithClock(now func() time.Time) *GoalService {
	if now == nil {
		return s
	}
	s.now = now
	return s
}

// Create 校验输入并创建进行中的目标；已有进行中目标时返回 ErrActiveGoalExists
func (s *GoalService) Create(ctx context.Context, userID string, input GoalInput) (*db.Goal, error) {
	start, end, err := s.validateGoalInput(input)
	if err != nil {
		return nil, err
	}

	goal := db.Goal{
		UserID:     userID,
		SeanceType: input.SeanceType,
		GoalType:   input.GoalType,
		GoalValue:  *input.GoalValue,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
		IsAchieved: false,
	}

	if err := s.goals.Create(ctx, &goal); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrActiveGoalExists
		}
		return nil, fmt.Errorf("create goal: %w", err)
	}

	logger.Debug("goal created", "user", userID, "goal", goal.ID, "end", goal.EndDate)
	return &goal, nil
}

// Active 返回用户进行中的目标
func (s *GoalService) Active(ctx context.Context, userID string) (*db.Goal, error) {
	goal, err := s.goals.FindActiveByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("get active goal: %w", err)
	}
	return goal, nil
}

// History 返回用户已关闭的目标，按结束时间倒序
func (s *GoalService) History(ctx context.Context, userID string) ([]db.Goal, error) {
	goals, err := s.goals.FindClosedByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("goal history: %w", err)
	}
	return goals, nil
}

// DeleteActive 删除用户进行中的目标
func (s *GoalService) DeleteActive(ctx context.Context, userID string) error {
	if err := s.goals.DeleteActiveByOwner(ctx, userID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrGoalNotFound
		}
		return fmt.Errorf("delete active goal: %w", err)
	}
	return nil
}

// CheckProgress 计算进行中目标的进度；若目标已过期则执行一次关闭评估。
// 提前达成不会关闭目标，只有越过 EndDate 才会触发状态迁移。
func (s *GoalService) CheckProgress(ctx context.Context, userID string) (*ProgressReport, error) {
	goal, err := s.goals.FindActiveByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return &ProgressReport{Status: ProgressNone}, nil
		}
		return nil, fmt.Errorf("check progress: %w", err)
	}

	now := s.now()
	if now.After(goal.EndDate) {
		return s.close(ctx, goal)
	}

	current, err := s.measure(ctx, goal, now)
	if err != nil {
		return nil, err
	}

	return &ProgressReport{
		Status:   ProgressOpen,
		Goal:     goal,
		Progress: buildProgress(goal, current, now),
	}, nil
}

// CloseExpired 关闭所有已过期的进行中目标，返回本次实际完成迁移的数量
func (s *GoalService) CloseExpired(ctx context.Context) (int, error) {
	goals, err := s.goals.FindExpiredActive(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep goals: %w", err)
	}

	closed := 0
	var errs []error
	for i := range goals {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		report, transitioned, err := s.closeGoal(ctx, &goals[i])
		if err != nil {
			logger.Error("sweep goal failed", "goal", goals[i].ID, "user", goals[i].UserID, "err", err)
			errs = append(errs, err)
			continue
		}
		if transitioned {
			closed++
			logger.Info("goal closed by sweep", "goal", report.Goal.ID, "user", report.Goal.UserID, "achieved", report.Closing.IsAchieved)
		}
	}

	return closed, errors.Join(errs...)
}

func (s *GoalService) close(ctx context.Context, goal *db.Goal) (*ProgressReport, error) {
	report, _, err := s.closeGoal(ctx, goal)
	return report, err
}

// closeGoal 按 [StartDate, EndDate] 统计最终结果并条件关闭目标。
// 若并发调用方先完成了关闭，则返回数据库中已持久化的结果。
func (s *GoalService) closeGoal(ctx context.Context, goal *db.Goal) (*ProgressReport, bool, error) {
	actual, err := s.measure(ctx, goal, goal.EndDate)
	if err != nil {
		return nil, false, err
	}
	achieved := actual >= goal.GoalValue

	transitioned, err := s.goals.CloseIfActive(ctx, goal.ID, achieved)
	if err != nil {
		return nil, false, fmt.Errorf("close goal: %w", err)
	}

	closedGoal := *goal
	if transitioned {
		closedGoal.IsActive = false
		closedGoal.IsAchieved = achieved
	} else {
		reloaded, err := s.goals.FindByID(ctx, goal.ID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return &ProgressReport{Status: ProgressNone}, false, nil
			}
			return nil, false, fmt.Errorf("reload goal: %w", err)
		}
		closedGoal = *reloaded
	}

	return &ProgressReport{
		Status: ProgressClosed,
		Goal:   &closedGoal,
		Closing: &ClosingResult{
			IsAchieved: closedGoal.IsAchieved,
			Actual:     actual,
			Target:     goal.GoalValue,
		},
	}, transitioned, nil
}

// measure 统计 [StartDate, until] 内与目标训练类型一致的指标总量
func (s *GoalService) measure(ctx context.Context, goal *db.Goal, until time.Time) (float64, error) {
	from := goal.StartDate
	seances, err := s.seances.FindByOwner(ctx, goal.UserID, db.SeanceFilter{
		Type: goal.SeanceType,
		From: &from,
		To:   &until,
	})
	if err != nil {
		return 0, fmt.Errorf("load goal seances: %w", err)
	}
	return GoalType(goal.GoalType).Measure(seances), nil
}

func buildProgress(goal *db.Goal, current float64, now time.Time) *Progress {
	total := ceilDays(goal.EndDate.Sub(goal.StartDate))
	remaining := ceilDays(goal.EndDate.Sub(now))

	return &Progress{
		Current:    current,
		Target:     goal.GoalValue,
		Percentage: percentage(current, goal.GoalValue),
		Days: ProgressDays{
			Total:     total,
			Elapsed:   total - remaining,
			Remaining: remaining,
		},
		IsCompleted: current >= goal.GoalValue,
	}
}

// percentage 四舍五入到整数，超出 int 范围时截断
func percentage(current, target float64) int {
	p := math.Floor(current/target*100 + 0.5)
	switch {
	case math.IsNaN(p):
		return 0
	case p >= float64(math.MaxInt):
		return math.MaxInt
	case p <= float64(math.MinInt):
		return math.MinInt
	}
	return int(p)
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(day)))
}

func (s *GoalService) validateGoalInput(input GoalInput) (time.Time, time.Time, error) {
	var zero time.Time

	if input.SeanceType == 0 {
		return zero, zero, invalid("seance_type", "Session type is required")
	}
	if !SeanceType(input.SeanceType).Valid() {
		return zero, zero, invalid("seance_type", "Session type must be 1 (Running), 2 (Cycling), or 3 (Strength)")
	}

	if input.GoalType == 0 {
		return zero, zero, invalid("goal_type", "Goal type is required")
	}
	if !GoalType(input.GoalType).Valid() {
		return zero, zero, invalid("goal_type", "Goal type must be 1 (Distance), 2 (Duration), or 3 (Calories)")
	}

	if input.GoalValue == nil {
		return zero, zero, invalid("goal_value", "Goal value is required")
	}
	if value := *input.GoalValue; value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return zero, zero, invalid("goal_value", "Goal value must be a positive number")
	}

	if input.StartDate == "" {
		return zero, zero, invalid("start_date", "Start date is required")
	}
	if input.EndDate == "" {
		return zero, zero, invalid("end_date", "End date is required")
	}

	start, err := ParseTimestamp(input.StartDate, s.loc)
	if err != nil {
		return zero, zero, invalid("start_date", "Invalid start date format")
	}
	end, err := ParseTimestamp(input.EndDate, s.loc)
	if err != nil {
		return zero, zero, invalid("end_date", "Invalid end date format")
	}

	if !end.After(start) {
		return zero, zero, invalid("end_date", "End date must be after start date")
	}
	if end.Before(s.now()) {
		return zero, zero, invalid("end_date", "End date cannot be in the past")
	}

	return start, end, nil
}
