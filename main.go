// main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"society-backend/config"
	"society-backend/controllers"
	"society-backend/routes"
	"society-backend/services"
	"society-backend/utils"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	config.InitLogger()

	if err := config.ConnectDatabase(); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	mediaDir := utils.EnvOrDefault("MEDIA_DIR", "./uploads")
	media := services.NewLocalMediaStore(mediaDir)
	notify := services.NewNotifyService(config.DB, services.LogDispatcher{})
	resolver := services.NewResolverService(config.DB)
	entry := services.NewEntryService(config.DB, resolver, notify, media, services.LogAttendanceService{})
	approval := services.NewApprovalService(config.DB, notify)

	guardCtl := controllers.NewGuardController(entry, resolver, approval)
	clientCtl := controllers.NewClientController(entry, approval)

	if utils.EnvOrDefault("GIN_MODE", "") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, guardCtl, clientCtl)

	port := utils.EnvOrDefault("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
