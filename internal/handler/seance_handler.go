package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fittrack/internal/db"
	"github.com/fittrack/internal/service"
	"github.com/gin-gonic/gin"
)

type seanceRequest struct {
	Type     interface{} `json:"type"`
	Duration *float64    `json:"duration"`
	Distance *float64    `json:"distance"`
	Calories *float64    `json:"calories"`
	Date     string      `json:"date"`
	Notes    string      `json:"notes"`
}

func (r seanceRequest) input() service.SeanceInput {
	return service.SeanceInput{
		Type:     service.EnumCode(r.Type),
		Duration: r.Duration,
		Distance: r.Distance,
		Calories: r.Calories,
		Date:     r.Date,
		Notes:    r.Notes,
	}
}

func seanceToPayload(seance *db.Seance) gin.H {
	return gin.H{
		"id":         seance.ID,
		"user":       seance.UserID,
		"type":       seance.Type,
		"duration":   seance.Duration,
		"distance":   seance.Distance,
		"calories":   seance.Calories,
		"date":       formatTime(seance.Date),
		"notes":      seance.Notes,
		"created_at": formatTime(seance.CreatedAt),
		"updated_at": formatTime(seance.UpdatedAt),
	}
}

// CreateSeance 记录一次训练
func (a *API) CreateSeance(c *gin.Context) {
	var req seanceRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	seance, err := a.seances.Create(c.Request.Context(), currentUserID(c), req.input())
	if err != nil {
		handleSeanceError(c, "create seance", err)
		return
	}

	c.JSON(http.StatusCreated, seanceToPayload(seance))
}

// ListSeances 按类型与时间范围列出当前用户的训练
func (a *API) ListSeances(c *gin.Context) {
	var filter db.SeanceFilter

	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		typ, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Type must be 1 (Running), 2 (Cycling), or 3 (Strength)")
			return
		}
		filter.Type = typ
	}

	from, err := a.parseOptionalTime(c, "from")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid from date format")
		return
	}
	to, err := a.parseOptionalTime(c, "to")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid to date format")
		return
	}
	filter.From, filter.To = from, to

	seances, err := a.seances.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		handleSeanceError(c, "list seances", err)
		return
	}

	response := make([]gin.H, 0, len(seances))
	for i := range seances {
		response = append(response, seanceToPayload(&seances[i]))
	}
	c.JSON(http.StatusOK, gin.H{"seances": response})
}

// GetSeance 获取单条训练
func (a *API) GetSeance(c *gin.Context) {
	seance, err := a.seances.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		handleSeanceError(c, "get seance", err)
		return
	}
	c.JSON(http.StatusOK, seanceToPayload(seance))
}

// UpdateSeance 覆盖更新训练
func (a *API) UpdateSeance(c *gin.Context) {
	var req seanceRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	seance, err := a.seances.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req.input())
	if err != nil {
		handleSeanceError(c, "update seance", err)
		return
	}
	c.JSON(http.StatusOK, seanceToPayload(seance))
}

// DeleteSeance 删除训练
func (a *API) DeleteSeance(c *gin.Context) {
	if err := a.seances.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		handleSeanceError(c, "delete seance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Seance deleted successfully"})
}

func handleSeanceError(c *gin.Context, op string, err error) {
	if msg, ok := validationMessage(err); ok {
		respondError(c, http.StatusBadRequest, msg)
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidSeanceID):
		respondError(c, http.StatusBadRequest, "Invalid seance ID")
	case errors.Is(err, service.ErrSeanceNotFound):
		respondError(c, http.StatusNotFound, "Seance not found")
	case errors.Is(err, service.ErrSeanceForbidden):
		respondError(c, http.StatusForbidden, "You don't have permission to access this seance")
	default:
		respondInternalError(c, op, err)
	}
}
