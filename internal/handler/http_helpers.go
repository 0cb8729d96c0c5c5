package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fittrack/internal/logger"
	"github.com/fittrack/internal/service"
	"github.com/gin-gonic/gin"
)

const userIDContextKey = "user_id"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondInternalError(c *gin.Context, op string, err error) {
	logger.Error(op+" failed", "user", currentUserID(c), "path", c.FullPath(), "err", err)
	respondError(c, http.StatusInternalServerError, "Internal server error")
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// validationMessage 在 err 为字段校验错误时返回其提示信息
func validationMessage(err error) (string, bool) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Message, true
	}
	return "", false
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDContextKey)
}

// parseOptionalTime 解析可选的时间查询参数，缺省时返回 nil
func (a *API) parseOptionalTime(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := service.ParseTimestamp(raw, a.loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
