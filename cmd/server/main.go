// Package main runs the presentation sync server: one WebSocket hub, two
// synchronized sessions (generic and malawi-prefixed) and the small HTTP
// surface around them, with graceful shutdown.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/maravian/sync-server/config"
	"github.com/maravian/sync-server/internal/auth"
	"github.com/maravian/sync-server/internal/middleware"
	"github.com/maravian/sync-server/internal/qr"
	"github.com/maravian/sync-server/internal/realtime"
	"github.com/maravian/sync-server/internal/session"
	"github.com/maravian/sync-server/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	hub := realtime.NewHub(logger)
	sessions := []*session.Session{
		session.New("", hub, logger, session.Options{QAHistoryLimit: cfg.QA.HistoryLimit}),
		session.New("malawi-", hub, logger, session.Options{QAHistoryLimit: cfg.QA.HistoryLimit}),
	}
	hub.SetMessageHandler(func(connectionID, event string, data json.RawMessage) {
		for _, s := range sessions {
			if s.Dispatch(connectionID, event, data) {
				return
			}
		}
		logger.Debug("unhandled event", zap.String("event", event), zap.String("connection_id", connectionID))
	})
	for _, s := range sessions {
		hub.OnConnect(s.HandleConnect)
		hub.OnDisconnect(s.HandleDisconnect)
	}

	authHandler := auth.NewHandler(cfg.Teacher.Password, cfg.Teacher.PasswordHash, logger)
	qrHandler := qr.NewHandler(cfg.Join.BaseURL, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.POST("/auth/teacher", authHandler.Login)
	router.GET("/qr", qrHandler.Generate)
	router.GET("/ws", realtime.ServeWs(hub, logger, cfg.Server.CORSAllowedOrigins))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
