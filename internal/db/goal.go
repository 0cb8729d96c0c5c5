package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goal 定义用户在时间区间内针对某一训练类型的目标
// SeanceType 1=Running 2=Cycling 3=Strength；GoalType 1=Distance 2=Duration 3=Calories
// idx_goals_one_active 为部分唯一索引，保证每个用户最多一个进行中的目标
// IsAchieved 仅在 IsActive=false 后有意义
type Goal struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_goals_one_active,where:is_active = true"`
	SeanceType int       `gorm:"not null"`
	GoalType   int       `gorm:"not null"`
	GoalValue  float64   `gorm:"not null"`
	StartDate  time.Time `gorm:"not null"`
	EndDate    time.Time `gorm:"not null;index"`
	IsActive   bool      `gorm:"not null;index"`
	IsAchieved bool      `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BeforeCreate 生成 UUID 并统一时间为 UTC
func (g *Goal) BeforeCreate(*gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.StartDate = g.StartDate.UTC()
	g.EndDate = g.EndDate.UTC()
	return nil
}

// GoalStore 负责 goals 表的读写
// 进行中目标的唯一性与关闭状态迁移都由数据库层原子保证
type GoalStore struct {
	db *gorm.DB
}

// NewGoalStore 构造 GoalStore
func NewGoalStore(gdb *gorm.DB) *GoalStore {
	return &GoalStore{db: gdb}
}

// Create 写入新目标；用户已有进行中目标时返回 ErrDuplicate
func (s *GoalStore) Create(ctx context.Context, goal *Goal) error {
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// FindByID 返回指定目标
func (s *GoalStore) FindByID(ctx context.Context, id string) (*Goal, error) {
	var goal Goal
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find goal: %w", err)
	}
	return &goal, nil
}

// FindActiveByOwner 返回用户当前进行中的目标
func (s *GoalStore) FindActiveByOwner(ctx context.Context, userID string) (*Goal, error) {
	var goal Goal
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find active goal: %w", err)
	}
	return &goal, nil
}

// FindClosedByOwner 返回用户已关闭的目标，按结束时间倒序
func (s *GoalStore) FindClosedByOwner(ctx context.Context, userID string) ([]Goal, error) {
	var goals []Goal
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, false).
		Order("end_date DESC").
		Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list closed goals: %w", err)
	}
	return goals, nil
}

// FindExpiredActive 返回截止时间早于 before 的所有进行中目标
func (s *GoalStore) FindExpiredActive(ctx context.Context, before time.Time) ([]Goal, error) {
	var goals []Goal
	if err := s.db.WithContext(ctx).
		Where("is_active = ? AND end_date < ?", true, before.UTC()).
		Order("end_date ASC").
		Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list expired goals: %w", err)
	}
	return goals, nil
}

// UpdateByID 更新目标的可编辑字段
func (s *GoalStore) UpdateByID(ctx context.Context, goal *Goal) error {
	result := s.db.WithContext(ctx).Model(&Goal{}).Where("id = ?", goal.ID).Updates(map[string]any{
		"seance_type": goal.SeanceType,
		"goal_type":   goal.GoalType,
		"goal_value":  goal.GoalValue,
		"start_date":  goal.StartDate.UTC(),
		"end_date":    goal.EndDate.UTC(),
		"is_active":   goal.IsActive,
		"is_achieved": goal.IsAchieved,
	})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicate
		}
		return fmt.Errorf("update goal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CloseIfActive 仅当目标仍处于进行中时将其关闭并写入达成结果。
// 返回 true 表示本次调用完成了状态迁移；并发调用中只有一个会得到 true。
func (s *GoalStore) CloseIfActive(ctx context.Context, id string, achieved bool) (bool, error) {
	result := s.db.WithContext(ctx).Model(&Goal{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"is_active":   false,
			"is_achieved": achieved,
		})
	if result.Error != nil {
		return false, fmt.Errorf("close goal: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// DeleteByID 删除目标
func (s *GoalStore) DeleteByID(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Goal{})
	if result.Error != nil {
		return fmt.Errorf("delete goal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteActiveByOwner 删除用户进行中的目标
func (s *GoalStore) DeleteActiveByOwner(ctx context.Context, userID string) error {
	result := s.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true).Delete(&Goal{})
	if result.Error != nil {
		return fmt.Errorf("delete active goal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
