package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-beasiswa-api/internal/middleware"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	"github.com/noah-isme/sma-beasiswa-api/internal/service"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext translates JWT claims into the service-layer actor.
// Routes behind the JWT middleware always carry claims; the zero actor is
// returned otherwise and fails ownership checks downstream.
func actorFromContext(c *gin.Context) service.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{UserID: claims.UserID, Role: claims.Role}
}
