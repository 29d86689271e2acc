package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nawel-dev/nawel/internal/services"
	"github.com/nawel-dev/nawel/internal/types"
	"github.com/nawel-dev/nawel/internal/utils"
)

type UserHandler struct {
	svc *services.UserService
	log *logrus.Logger
}

func NewUserHandler(svc *services.UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// FamilyMembers lists the caller's family, so they can pick whose list to
// browse. The caller is excluded from the result.
func (h *UserHandler) FamilyMembers(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	users, err := h.svc.FamilyMembers(ctx.Request.Context(), currentUser.FamilyID, currentUser.ID)

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	response := make([]types.UserResponse, 0, len(users))

	for i := range users {
		response = append(response, userResponse(&users[i]))
	}

	ctx.JSON(http.StatusOK, response)
}
