package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/fittrack/internal/db"
	"github.com/google/uuid"
)

// Window 描述统计所用的时间窗口类型
type Window string

const (
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
)

// SeanceReader 是统计与目标计算所需的只读训练存储
type SeanceReader interface {
	FindByID(ctx context.Context, id string) (*db.Seance, error)
	FindByOwner(ctx context.Context, userID string, filter db.SeanceFilter) ([]db.Seance, error)
}

// Aggregate 汇总一组训练的总量与平均值，平均值保留两位小数
type Aggregate struct {
	Count         int     `json:"count"`
	TotalDuration float64 `json:"totalDuration"`
	TotalDistance float64 `json:"totalDistance"`
	TotalCalories float64 `json:"totalCalories"`
	AvgDuration   float64 `json:"avgDuration"`
	AvgDistance   float64 `json:"avgDistance"`
	AvgCalories   float64 `json:"avgCalories"`
}

// WindowStats 为某个统计窗口的汇总结果
type WindowStats struct {
	Window Window    `json:"window"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Aggregate
}

// SeanceSnapshot 为对比结果中的单条训练
type SeanceSnapshot struct {
	ID       string    `json:"id"`
	Type     int       `json:"type"`
	Date     time.Time `json:"date"`
	Duration float64   `json:"duration"`
	Distance float64   `json:"distance"`
	Calories float64   `json:"calories"`
}

// SeanceDelta 为两条训练的差值（B-A），正数与零带 "+" 前缀
type SeanceDelta struct {
	Duration string `json:"duration"`
	Distance string `json:"distance"`
	Calories string `json:"calories"`
}

// Comparison 为两条训练的对比结果
type Comparison struct {
	SessionA SeanceSnapshot `json:"sessionA"`
	SessionB SeanceSnapshot `json:"sessionB"`
	Delta    SeanceDelta    `json:"delta"`
}

// TypeCalories 为单一训练类型的卡路里统计
type TypeCalories struct {
	Label           string  `json:"label"`
	TotalCalories   float64 `json:"totalCalories"`
	SessionCount    int     `json:"sessionCount"`
	AverageCalories float64 `json:"averageCalories"`
}

// CaloriesSummary 汇总全部训练
type CaloriesSummary struct {
	TotalSessions       int     `json:"totalSessions"`
	TotalCaloriesBurned float64 `json:"totalCaloriesBurned"`
}

// CaloriesByType 按训练类型统计平均卡路里
type CaloriesByType struct {
	Running  TypeCalories    `json:"running"`
	Cycling  TypeCalories    `json:"cycling"`
	Strength TypeCalories    `json:"strength"`
	Summary  CaloriesSummary `json:"summary"`
}

// StatisticsService 负责训练数据的窗口统计与对比
type StatisticsService struct {
	seances SeanceReader
	loc     *time.Location
}

// NewStatisticsService 构造 StatisticsService，loc 为月度窗口使用的本地时区
func NewStatisticsService(seances SeanceReader, loc *time.Location) *StatisticsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatisticsService{seances: seances, loc: loc}
}

// Location 返回统计所用的本地时区
func (s *StatisticsService) Location() *time.Location {
	return s.loc
}

// AggregateSeances 计算总量与平均值，空集合返回全零结果
func AggregateSeances(seances []db.Seance) Aggregate {
	if len(seances) == 0 {
		return Aggregate{}
	}

	var agg Aggregate
	for _, seance := range seances {
		agg.TotalDuration += seance.Duration
		agg.TotalDistance += seance.Distance
		agg.TotalCalories += seance.Calories
	}

	agg.Count = len(seances)
	count := float64(agg.Count)
	agg.AvgDuration = round2(agg.TotalDuration / count)
	agg.AvgDistance = round2(agg.TotalDistance / count)
	agg.AvgCalories = round2(agg.TotalCalories / count)

	return agg
}

// WeekRange 返回包含 ref 的 ISO 周：周一 00:00:00.000 UTC 至周日 23:59:59.999 UTC。
// 日期按 loc 中的日历日确定，周日视为第 7 天。
func WeekRange(ref time.Time, loc *time.Location) (time.Time, time.Time) {
	local := ref.In(loc)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	start := time.Date(local.Year(), local.Month(), local.Day()-weekday+1, 0, 0, 0, 0, time.UTC)
	end := time.Date(start.Year(), start.Month(), start.Day()+6, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return start, end
}

// MonthRange 返回 ref 所在的本地自然月：1 日 00:00:00.000 至月末 23:59:59.999
func MonthRange(ref time.Time, loc *time.Location) (time.Time, time.Time) {
	local := ref.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	end := time.Date(local.Year(), local.Month()+1, 0, 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

// WindowedAggregate 统计 ref 所在周或月内的训练
func (s *StatisticsService) WindowedAggregate(ctx context.Context, userID string, ref time.Time, window Window) (*WindowStats, error) {
	var start, end time.Time
	switch window {
	case WindowWeekly:
		start, end = WeekRange(ref, s.loc)
	case WindowMonthly:
		start, end = MonthRange(ref, s.loc)
	default:
		return nil, invalid("window", fmt.Sprintf("unsupported window %q", window))
	}

	seances, err := s.seances.FindByOwner(ctx, userID, db.SeanceFilter{From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("%s stats: %w", window, err)
	}

	return &WindowStats{
		Window:    window,
		Start:     start,
		End:       end,
		Aggregate: AggregateSeances(seances),
	}, nil
}

// Weekly 是 WindowedAggregate 的周统计快捷方式
func (s *StatisticsService) Weekly(ctx context.Context, userID string, ref time.Time) (*WindowStats, error) {
	return s.WindowedAggregate(ctx, userID, ref, WindowWeekly)
}

// Monthly 是 WindowedAggregate 的月统计快捷方式
func (s *StatisticsService) Monthly(ctx context.Context, userID string, ref time.Time) (*WindowStats, error) {
	return s.WindowedAggregate(ctx, userID, ref, WindowMonthly)
}

// Compare 对比同一用户的两条训练，差值为 B-A
func (s *StatisticsService) Compare(ctx context.Context, userID, idA, idB string) (*Comparison, error) {
	if !isSeanceID(idA) || !isSeanceID(idB) {
		return nil, ErrInvalidSeanceID
	}

	a, err := s.loadSeance(ctx, idA)
	if err != nil {
		return nil, err
	}
	b, err := s.loadSeance(ctx, idB)
	if err != nil {
		return nil, err
	}

	if a.UserID != userID || b.UserID != userID {
		return nil, ErrSeanceForbidden
	}

	return &Comparison{
		SessionA: snapshot(*a),
		SessionB: snapshot(*b),
		Delta: SeanceDelta{
			Duration: formatDelta(b.Duration - a.Duration),
			Distance: formatDelta(b.Distance - a.Distance),
			Calories: formatDelta(b.Calories - a.Calories),
		},
	}, nil
}

// AverageCaloriesByType 统计用户每种训练类型的总卡路里、次数与平均值
func (s *StatisticsService) AverageCaloriesByType(ctx context.Context, userID string) (*CaloriesByType, error) {
	seances, err := s.seances.FindByOwner(ctx, userID, db.SeanceFilter{})
	if err != nil {
		return nil, fmt.Errorf("calories by type: %w", err)
	}

	buckets := make(map[SeanceType]*TypeCalories, len(SeanceTypes))
	for _, t := range SeanceTypes {
		buckets[t] = &TypeCalories{Label: t.Label()}
	}

	result := &CaloriesByType{}
	for _, seance := range seances {
		result.Summary.TotalSessions++
		result.Summary.TotalCaloriesBurned += seance.Calories

		if bucket, ok := buckets[SeanceType(seance.Type)]; ok {
			bucket.TotalCalories += seance.Calories
			bucket.SessionCount++
		}
	}

	for _, bucket := range buckets {
		if bucket.SessionCount > 0 {
			bucket.AverageCalories = round2(bucket.TotalCalories / float64(bucket.SessionCount))
		}
	}

	result.Running = *buckets[SeanceRunning]
	result.Cycling = *buckets[SeanceCycling]
	result.Strength = *buckets[SeanceStrength]
	return result, nil
}

func (s *StatisticsService) loadSeance(ctx context.Context, id string) (*db.Seance, error) {
	seance, err := s.seances.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrSeanceNotFound
		}
		return nil, fmt.Errorf("load seance: %w", err)
	}
	return seance, nil
}

func snapshot(s db.Seance) SeanceSnapshot {
	return SeanceSnapshot{
		ID:       s.ID,
		Type:     s.Type,
		Date:     s.Date,
		Duration: s.Duration,
		Distance: s.Distance,
		Calories: s.Calories,
	}
}

// round2 按 (v*100) 四舍五入（.5 向上）后除以 100
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func formatDelta(d float64) string {
	if d == 0 {
		return "+0"
	}
	formatted := strconv.FormatFloat(d, 'f', -1, 64)
	if d > 0 {
		return "+" + formatted
	}
	return formatted
}

// isSeanceID 只接受标准 36 位格式的 UUID
func isSeanceID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
