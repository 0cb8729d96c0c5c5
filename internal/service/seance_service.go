package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fittrack/internal/db"
	"github.com/microcosm-cc/bluemonday"
)

const maxSeanceNotesRunes = 500

// SeanceStore 是训练 CRUD 依赖的存储能力
type SeanceStore interface {
	SeanceReader
	Create(ctx context.Context, seance *db.Seance) error
	UpdateByID(ctx context.Context, seance *db.Seance) error
	DeleteByID(ctx context.Context, id string) error
}

// SeanceInput 定义创建/更新训练时的字段，指针为 nil 表示未提供
type SeanceInput struct {
	Type     int
	Duration *float64
	Distance *float64
	Calories *float64
	Date     string
	Notes    string
}

// SeanceService 负责训练记录的增删改查，所有操作都限定在记录归属用户内
type SeanceService struct {
	seances SeanceStore
	policy  *bluemonday.Policy
	loc     *time.Location
	now     func() time.Time
}

// NewSeanceService 构造 SeanceService
func NewSeanceService(seances SeanceStore, loc *time.Location) *SeanceService {
	if loc == nil {
		loc = time.Local
	}
	return &SeanceService{
		seances: seances,
		policy:  bluemonday.StrictPolicy(),
		loc:     loc,
		now:     time.Now,
	}
}

// WithClock 替换时间来源，主要用于测试
func (s *SeanceService) WithClock(now func() time.Time) *SeanceService {
	if now == nil {
		return s
	}
	s.now = now
	return s
}

// Create 新建训练，Date 为空时使用当前时间
func (s *SeanceService) Create(ctx context.Context, userID string, input SeanceInput) (*db.Seance, error) {
	seance := db.Seance{UserID: userID}
	if err := s.apply(&seance, input); err != nil {
		return nil, err
	}
	if seance.Date.IsZero() {
		seance.Date = s.now()
	}

	if err := s.seances.Create(ctx, &seance); err != nil {
		return nil, fmt.Errorf("create seance: %w", err)
	}
	return &seance, nil
}

// Get 返回属于 userID 的训练
func (s *SeanceService) Get(ctx context.Context, userID, id string) (*db.Seance, error) {
	if !isSeanceID(id) {
		return nil, ErrInvalidSeanceID
	}

	seance, err := s.seances.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrSeanceNotFound
		}
		return nil, fmt.Errorf("get seance: %w", err)
	}
	if seance.UserID != userID {
		return nil, ErrSeanceForbidden
	}
	return seance, nil
}

// List 返回用户训练，按日期升序
func (s *SeanceService) List(ctx context.Context, userID string, filter db.SeanceFilter) ([]db.Seance, error) {
	if filter.Type != 0 && !SeanceType(filter.Type).Valid() {
		return nil, invalid("type", "Type must be 1 (Running), 2 (Cycling), or 3 (Strength)")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, invalid("to", "End of range must not be before its start")
	}

	seances, err := s.seances.FindByOwner(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list seances: %w", err)
	}
	return seances, nil
}

// Update 以完整输入覆盖训练字段，Date 为空时保留原日期
func (s *SeanceService) Update(ctx context.Context, userID, id string, input SeanceInput) (*db.Seance, error) {
	seance, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updated := *seance
	if err := s.apply(&updated, input); err != nil {
		return nil, err
	}

	if err := s.seances.UpdateByID(ctx, &updated); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrSeanceNotFound
		}
		return nil, fmt.Errorf("update seance: %w", err)
	}
	return &updated, nil
}

// Delete 删除属于 userID 的训练
func (s *SeanceService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	if err := s.seances.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrSeanceNotFound
		}
		return fmt.Errorf("delete seance: %w", err)
	}
	return nil
}

func (s *SeanceService) apply(seance *db.Seance, input SeanceInput) error {
	if input.Type == 0 {
		return invalid("type", "Type is required")
	}
	if !SeanceType(input.Type).Valid() {
		return invalid("type", "Type must be 1 (Running), 2 (Cycling), or 3 (Strength)")
	}

	if input.Duration == nil {
		return invalid("duration", "Duration is required")
	}
	if !finite(*input.Duration) || *input.Duration <= 0 {
		return invalid("duration", "Duration must be greater than 0")
	}

	if input.Distance == nil {
		return invalid("distance", "Distance is required")
	}
	if !finite(*input.Distance) || *input.Distance < 0 {
		return invalid("distance", "Distance must be greater than or equal to 0")
	}

	if input.Calories == nil {
		return invalid("calories", "Calories are required")
	}
	if !finite(*input.Calories) || *input.Calories < 0 {
		return invalid("calories", "Calories must be greater than or equal to 0")
	}

	if input.Date != "" {
		date, err := ParseTimestamp(input.Date, s.loc)
		if err != nil {
			return invalid("date", "Invalid date format")
		}
		seance.Date = date
	}

	notes := strings.TrimSpace(s.policy.Sanitize(input.Notes))
	if utf8.RuneCountInString(notes) > maxSeanceNotesRunes {
		return invalid("notes", fmt.Sprintf("Notes must be at most %d characters", maxSeanceNotesRunes))
	}

	seance.Type = input.Type
	seance.Duration = *input.Duration
	seance.Distance = *input.Distance
	seance.Calories = *input.Calories
	seance.Notes = notes
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
