// middleware/context.go
package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"society-backend/models"
	"society-backend/utils"
)

// Context keys set by RequireTenant / RequireRole.
const (
	CtxApartmentID = "apartmentID"
	CtxActorID     = "actorID"
	CtxActorRole   = "actorRole"
)

// RequireTenant reads the tenant and actor headers forwarded by the API
// gateway after authentication. Requests without a tenant are rejected;
// every downstream query is scoped by this apartment id.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		apartmentID, err := strconv.ParseUint(c.GetHeader("X-Apartment-ID"), 10, 32)
		if err != nil || apartmentID == 0 {
			utils.JSONError(c, http.StatusUnauthorized, "missing_apartment_id")
			c.Abort()
			return
		}
		actorID, err := strconv.ParseUint(c.GetHeader("X-Actor-ID"), 10, 32)
		if err != nil || actorID == 0 {
			utils.JSONError(c, http.StatusUnauthorized, "missing_actor_id")
			c.Abort()
			return
		}
		role := c.GetHeader("X-Actor-Role")
		if role != models.ActorGuard && role != models.ActorUser {
			utils.JSONError(c, http.StatusUnauthorized, "invalid_actor_role")
			c.Abort()
			return
		}

		c.Set(CtxApartmentID, uint(apartmentID))
		c.Set(CtxActorID, uint(actorID))
		c.Set(CtxActorRole, role)
		c.Next()
	}
}

// RequireRole gates a route group to one actor role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxActorRole) != role {
			utils.JSONError(c, http.StatusForbidden, "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ApartmentID returns the tenant id set by RequireTenant.
func ApartmentID(c *gin.Context) uint {
	return c.GetUint(CtxApartmentID)
}

// ActorID returns the authenticated actor id set by RequireTenant.
func ActorID(c *gin.Context) uint {
	return c.GetUint(CtxActorID)
}

// ActorRole returns the authenticated actor role set by RequireTenant.
func ActorRole(c *gin.Context) string {
	return c.GetString(CtxActorRole)
}
