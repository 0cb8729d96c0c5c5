package handler

import (
	"errors"
	"net/http"

	"github.com/fittrack/internal/db"
	"github.com/fittrack/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userToPayload(user *db.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"email": user.Email,
	}
}

// Register 创建新账户
func (a *API) Register(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	user, err := a.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered", "userId": user.ID})
}

// Login 校验凭据并签发访问令牌，同时写入会话
func (a *API) Login(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(c, "login", err)
		return
	}

	token, expiresAt, err := a.tokens.Issue(user.ID)
	if err != nil {
		respondInternalError(c, "issue token", err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionTokenKey, token)
	if err := session.Save(); err != nil {
		respondInternalError(c, "save session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"token":     token,
		"expiresAt": formatTime(expiresAt),
		"user":      userToPayload(user),
	})
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondInternalError(c, "clear session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Profile 返回当前登录用户
func (a *API) Profile(c *gin.Context) {
	user, err := a.users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleAuthError(c, "profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToPayload(user)})
}

func handleAuthError(c *gin.Context, op string, err error) {
	if msg, ok := validationMessage(err); ok {
		respondError(c, http.StatusBadRequest, msg)
		return
	}

	switch {
	case errors.Is(err, service.ErrUserExists):
		respondError(c, http.StatusConflict, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, "Unauthorized")
	default:
		respondInternalError(c, op, err)
	}
}
