package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fittrack/internal/logger"
	"github.com/fittrack/internal/service"
	"github.com/gin-gonic/gin"
)

func respondStats(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// respondStatsInternalError 记录存储错误，响应中只保留通用提示
func respondStatsInternalError(c *gin.Context, op, message string, err error) {
	logger.Error(op+" failed", "user", currentUserID(c), "path", c.FullPath(), "err", err)
	respondStatsError(c, http.StatusInternalServerError, message, nil)
}

func respondStatsError(c *gin.Context, status int, message string, err error) {
	body := gin.H{
		"success": false,
		"message": message,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}

// GetWeeklyStats 获取某周（周一至周日）的训练统计
func (a *API) GetWeeklyStats(c *gin.Context) {
	a.windowStats(c, "weekly stats", a.stats.Weekly, "Weekly statistics retrieved successfully", "Error retrieving weekly statistics")
}

// GetMonthlyStats 获取某月的训练统计
func (a *API) GetMonthlyStats(c *gin.Context) {
	a.windowStats(c, "monthly stats", a.stats.Monthly, "Monthly statistics retrieved successfully", "Error retrieving monthly statistics")
}

type windowFunc func(ctx context.Context, userID string, ref time.Time) (*service.WindowStats, error)

func (a *API) windowStats(c *gin.Context, op string, fn windowFunc, okMessage, failMessage string) {
	ref := a.now()
	if ts, err := a.parseOptionalTime(c, "date"); err != nil {
		respondStatsError(c, http.StatusBadRequest, "Invalid date format", err)
		return
	} else if ts != nil {
		ref = *ts
	}

	stats, err := fn(c.Request.Context(), currentUserID(c), ref)
	if err != nil {
		respondStatsInternalError(c, op, failMessage, err)
		return
	}
	respondStats(c, okMessage, stats)
}

// CompareSeances 对比两条训练
func (a *API) CompareSeances(c *gin.Context) {
	first := strings.TrimSpace(c.Query("seance1"))
	second := strings.TrimSpace(c.Query("seance2"))
	if first == "" || second == "" {
		respondStatsError(c, http.StatusBadRequest, "Both seance1 and seance2 IDs are required", nil)
		return
	}

	comparison, err := a.stats.Compare(c.Request.Context(), currentUserID(c), first, second)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSeanceID):
			respondStatsError(c, http.StatusBadRequest, "One or both session IDs are invalid", err)
		case errors.Is(err, service.ErrSeanceNotFound):
			respondStatsError(c, http.StatusNotFound, "One or both sessions not found", err)
		case errors.Is(err, service.ErrSeanceForbidden):
			respondStatsError(c, http.StatusForbidden, "You don't have permission to compare these sessions", err)
		default:
			respondStatsInternalError(c, "compare seances", "Error comparing sessions", err)
		}
		return
	}

	respondStats(c, "Sessions compared successfully", comparison)
}

// GetCaloriesByActivity 按训练类型统计平均卡路里
func (a *API) GetCaloriesByActivity(c *gin.Context) {
	stats, err := a.stats.AverageCaloriesByType(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondStatsInternalError(c, "calories by activity", "Error retrieving calories by activity type", err)
		return
	}
	respondStats(c, "Average calories by activity type retrieved successfully", stats)
}
