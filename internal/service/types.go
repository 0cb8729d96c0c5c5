package service

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/fittrack/internal/db"
)

// SeanceType 表示训练类型
type SeanceType int

const (
	SeanceRunning  SeanceType = 1
	SeanceCycling  SeanceType = 2
	SeanceStrength SeanceType = 3
)

// SeanceTypes 按固定顺序列出全部训练类型
var SeanceTypes = []SeanceType{SeanceRunning, SeanceCycling, SeanceStrength}

// Valid 判断类型是否受支持
func (t SeanceType) Valid() bool {
	return t >= SeanceRunning && t <= SeanceStrength
}

// Label 返回类型的展示名称
func (t SeanceType) Label() string {
	switch t {
	case SeanceRunning:
		return "Running"
	case SeanceCycling:
		return "Cycling"
	case SeanceStrength:
		return "Strength"
	default:
		return "Unknown"
	}
}

// GoalType 表示目标的衡量指标
type GoalType int

const (
	GoalDistance GoalType = 1
	GoalDuration GoalType = 2
	GoalCalories GoalType = 3
)

// Valid 判断指标是否受支持
func (t GoalType) Valid() bool {
	return t >= GoalDistance && t <= GoalCalories
}

// Label 返回指标的展示名称
func (t GoalType) Label() string {
	switch t {
	case GoalDistance:
		return "Distance"
	case GoalDuration:
		return "Duration"
	case GoalCalories:
		return "Calories"
	default:
		return "Unknown"
	}
}

// Measure 将一组训练按指标累加为单个数值
func (t GoalType) Measure(seances []db.Seance) float64 {
	total := 0.0
	for _, s := range seances {
		switch t {
		case GoalDistance:
			total += s.Distance
		case GoalDuration:
			total += s.Duration
		case GoalCalories:
			total += s.Calories
		}
	}
	return total
}

// EnumCode 将 JSON 解码得到的枚举值转换为整数编码。
// 缺省或 null 返回 0；字符串、小数等非整数取值返回 -1，交由各字段的校验给出提示。
func EnumCode(raw interface{}) int {
	switch v := raw.(type) {
	case nil:
		return 0
	case int:
		return v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return -1
		}
		return EnumCode(f)
	case float64:
		if math.IsNaN(v) || v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return -1
		}
		return int(v)
	default:
		return -1
	}
}

var errInvalidTimestamp = errors.New("invalid timestamp")

// 不带时区的日期时间按 loc 解析；纯日期按 UTC 零点解析
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp 解析 API 中出现的时间字符串
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, errInvalidTimestamp
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.UTC); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errInvalidTimestamp
}
