package handler

import (
	"errors"
	"net/http"

	"github.com/fittrack/internal/db"
	"github.com/fittrack/internal/service"
	"github.com/gin-gonic/gin"
)

type goalRequest struct {
	SeanceType interface{} `json:"seance_type"`
	GoalType   interface{} `json:"goal_type"`
	GoalValue  *float64    `json:"goal_value"`
	StartDate  string      `json:"start_date"`
	EndDate    string      `json:"end_date"`
}

func goalToPayload(goal *db.Goal) gin.H {
	return gin.H{
		"id":          goal.ID,
		"user":        goal.UserID,
		"seance_type": goal.SeanceType,
		"goal_type":   goal.GoalType,
		"goal_value":  goal.GoalValue,
		"start_date":  formatTime(goal.StartDate),
		"end_date":    formatTime(goal.EndDate),
		"is_active":   goal.IsActive,
		"is_achieved": goal.IsAchieved,
		"created_at":  formatTime(goal.CreatedAt),
	}
}

// CreateGoal 创建进行中的目标
func (a *API) CreateGoal(c *gin.Context) {
	var req goalRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	goal, err := a.goals.Create(c.Request.Context(), currentUserID(c), service.GoalInput{
		SeanceType: service.EnumCode(req.SeanceType),
		GoalType:   service.EnumCode(req.GoalType),
		GoalValue:  req.GoalValue,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		handleGoalError(c, "create goal", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Goal created successfully", "goal": goalToPayload(goal)})
}

// GetActiveGoal 获取当前进行中的目标
func (a *API) GetActiveGoal(c *gin.Context) {
	goal, err := a.goals.Active(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleGoalError(c, "get active goal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goalToPayload(goal)})
}

// GetGoalHistory 获取已关闭的目标
func (a *API) GetGoalHistory(c *gin.Context) {
	goals, err := a.goals.History(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleGoalError(c, "goal history", err)
		return
	}

	response := make([]gin.H, 0, len(goals))
	for i := range goals {
		response = append(response, goalToPayload(&goals[i]))
	}
	c.JSON(http.StatusOK, gin.H{"goals": response})
}

// DeleteActiveGoal 删除当前进行中的目标
func (a *API) DeleteActiveGoal(c *gin.Context) {
	if err := a.goals.DeleteActive(c.Request.Context(), currentUserID(c)); err != nil {
		handleGoalError(c, "delete active goal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted successfully"})
}

// CheckGoalProgress 检查目标进度，到期目标在此关闭
func (a *API) CheckGoalProgress(c *gin.Context) {
	report, err := a.goals.CheckProgress(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleGoalError(c, "check goal progress", err)
		return
	}

	switch report.Status {
	case service.ProgressClosed:
		c.JSON(http.StatusOK, gin.H{
			"message":    "Goal period has ended",
			"isAchieved": report.Closing.IsAchieved,
			"actual":     report.Closing.Actual,
			"target":     report.Closing.Target,
			"goal":       goalToPayload(report.Goal),
		})
	case service.ProgressOpen:
		c.JSON(http.StatusOK, gin.H{
			"goal":     goalToPayload(report.Goal),
			"progress": report.Progress,
		})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "No active goal to check"})
	}
}

func handleGoalError(c *gin.Context, op string, err error) {
	if msg, ok := validationMessage(err); ok {
		respondError(c, http.StatusBadRequest, msg)
		return
	}

	switch {
	case errors.Is(err, service.ErrActiveGoalExists):
		respondError(c, http.StatusConflict, "You already have an active goal. Delete your current goal before creating a new one.")
	case errors.Is(err, service.ErrGoalNotFound):
		respondError(c, http.StatusNotFound, "No active goal found")
	default:
		respondInternalError(c, op, err)
	}
}
