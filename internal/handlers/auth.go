package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nawel-dev/nawel/internal/auth"
	"github.com/nawel-dev/nawel/internal/models"
	"github.com/nawel-dev/nawel/internal/services"
	"github.com/nawel-dev/nawel/internal/types"
	"github.com/nawel-dev/nawel/internal/utils"
)

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type AuthHandler struct {
	svc *services.AuthService
	log *logrus.Logger
}

func NewAuthHandler(svc *services.AuthService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.svc.Authenticate(ctx.Request.Context(), req.Login, req.Password)

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Login, user.IsAdmin)

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.svc.GetUserByID(ctx.Request.Context(), currentUser.ID)

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	// Tokens are stateless; the client drops its copy.
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req ChangePasswordRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err = h.svc.ChangePassword(ctx.Request.Context(), currentUser.ID, req.CurrentPassword, req.NewPassword)

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// ForgotPassword always answers 200 so the endpoint cannot be used to probe
// which emails exist. The issued token is handed to the mailer, not the
// client.
func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, err := h.svc.GenerateResetToken(ctx.Request.Context(), req.Email)

	if err == nil {
		h.log.WithField("email", req.Email).Debug("reset token issued")
		_ = token // delivered by the email layer
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset link has been sent"})
}

func (h *AuthHandler) ValidateResetToken(ctx *gin.Context) {
	token := ctx.Query("token")

	if token == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	valid := h.svc.ValidateResetToken(ctx.Request.Context(), token)

	ctx.JSON(http.StatusOK, gin.H{"valid": valid})
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ok, err := h.svc.ResetPassword(ctx.Request.Context(), req.Token, req.NewPassword)

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

func userResponse(user *models.User) types.UserResponse {
	return types.UserResponse{
		ID:         user.ID,
		Login:      user.Login,
		FirstName:  user.FirstName,
		Pseudo:     user.Pseudo,
		Email:      user.Email,
		Avatar:     user.Avatar,
		IsAdmin:    user.IsAdmin,
		IsChildren: user.IsChildren,
		FamilyID:   user.FamilyID,
	}
}
