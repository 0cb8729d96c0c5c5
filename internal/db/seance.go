package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seance 记录一次训练
// Type 取值 1=Running 2=Cycling 3=Strength；Duration 为分钟，Distance 为米
type Seance struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);not null;index:idx_seances_owner_date,priority:1"`
	Type      int       `gorm:"not null;index"`
	Duration  float64   `gorm:"not null"`
	Distance  float64   `gorm:"not null"`
	Calories  float64   `gorm:"not null"`
	Date      time.Time `gorm:"not null;index:idx_seances_owner_date,priority:2"`
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate 生成 UUID
func (s *Seance) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	// sqlite 以文本比较时间，统一存储为 UTC
	s.Date = s.Date.UTC()
	return nil
}

// SeanceFilter 描述按用户查询训练时的可选条件
// Type 为 0 表示不过滤；From/To 为 nil 表示该端不设限，区间两端均为闭区间
type SeanceFilter struct {
	Type int
	From *time.Time
	To   *time.Time
}

// SeanceStore 负责 seances 表的读写
type SeanceStore struct {
	db *gorm.DB
}

// NewSeanceStore 构造 SeanceStore
func NewSeanceStore(gdb *gorm.DB) *SeanceStore {
	return &SeanceStore{db: gdb}
}

// Create 写入训练记录
func (s *SeanceStore) Create(ctx context.Context, seance *Seance) error {
	if err := s.db.WithContext(ctx).Create(seance).Error; err != nil {
		return fmt.Errorf("create seance: %w", err)
	}
	return nil
}

// FindByID 返回指定训练，不校验归属
func (s *SeanceStore) FindByID(ctx context.Context, id string) (*Seance, error) {
	var seance Seance
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&seance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find seance: %w", err)
	}
	return &seance, nil
}

// FindByOwner 返回用户的训练记录，按日期升序
func (s *SeanceStore) FindByOwner(ctx context.Context, userID string, filter SeanceFilter) ([]Seance, error) {
	var seances []Seance

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Type != 0 {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("date <= ?", filter.To.UTC())
	}

	if err := query.Order("date ASC").Find(&seances).Error; err != nil {
		return nil, fmt.Errorf("list seances: %w", err)
	}
	return seances, nil
}

// UpdateByID 保存已修改的训练记录
func (s *SeanceStore) UpdateByID(ctx context.Context, seance *Seance) error {
	result := s.db.WithContext(ctx).Model(&Seance{}).Where("id = ?", seance.ID).Updates(map[string]any{
		"type":     seance.Type,
		"duration": seance.Duration,
		"distance": seance.Distance,
		"calories": seance.Calories,
		"date":     seance.Date.UTC(),
		"notes":    seance.Notes,
	})
	if result.Error != nil {
		return fmt.Errorf("update seance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByID 删除训练记录
func (s *SeanceStore) DeleteByID(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Seance{})
	if result.Error != nil {
		return fmt.Errorf("delete seance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
