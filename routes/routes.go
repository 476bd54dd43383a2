// routes/routes.go
package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"society-backend/controllers"
	"society-backend/middleware"
	"society-backend/models"
)

// SetupRoutes wires the HTTP surface. Authentication happens upstream at
// the gateway; this service trusts the forwarded tenant and actor headers.
func SetupRoutes(r *gin.Engine, guard *controllers.GuardController, client *controllers.ClientController) {
	allowOrigins := []string{"*"}
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		allowOrigins = strings.Split(origins, ",")
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Apartment-ID", "X-Actor-ID", "X-Actor-Role"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	guardGroup := r.Group("/api/guard", middleware.RequireTenant(), middleware.RequireRole(models.ActorGuard))
	{
		guardGroup.POST("/entries", guard.RecordEntry)
		guardGroup.GET("/entries/active", guard.ListActiveRequests)
		guardGroup.POST("/resolve/code", guard.ResolveCode)
		guardGroup.GET("/resolve/:type/:id", guard.ResolveIdentity)
		guardGroup.POST("/requests/:id/force", guard.ForceResolve)
		guardGroup.POST("/requests/:id/confirm-entry", guard.ConfirmEntry)
		guardGroup.POST("/requests/:id/confirm-denial", guard.ConfirmDenial)
	}

	clientGroup := r.Group("/api/client", middleware.RequireTenant(), middleware.RequireRole(models.ActorUser))
	{
		clientGroup.GET("/requests/pending", client.ListPending)
		clientGroup.POST("/requests/:id/respond", client.Respond)
		clientGroup.POST("/requests/:id/resend", client.Resend)
	}
}
