package handlers

import (
	"net/http"

	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type UsersHandler struct{}

func NewUsersHandler() *UsersHandler {
	return &UsersHandler{}
}

// GetProfile answers from the identity the auth middleware already
// resolved; the owner check guarantees it is the :id user.
func (h *UsersHandler) GetProfile(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondForbidden(ctx, middlewares.ReasonUnauthorized, "Unauthorized!")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User fetched!",
		"user":    u,
	})
}
