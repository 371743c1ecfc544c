package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eyeson-app/eyeson/internal/database"
	"github.com/eyeson-app/eyeson/internal/logging"
	"github.com/eyeson-app/eyeson/internal/notify"
	"github.com/eyeson-app/eyeson/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("EYESON_LOG_LEVEL"), os.Getenv("EYESON_LOG_JSON") == "true")

	port := os.Getenv("EYESON_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("EYESON_DB_PATH")
	if dbPath == "" {
		dbPath = "eyeson.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		VAPIDPublicKey:  os.Getenv("EYESON_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("EYESON_VAPID_PRIVATE_KEY"),
		LocalUserID:     os.Getenv("EYESON_LOCAL_USER_ID"),
	}
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		pub, priv, err := notify.GenerateVAPIDKeys()
		if err != nil {
			logger.Error("generate VAPID keys", "error", err)
			os.Exit(1)
		}
		cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey = pub, priv
		logger.Warn("generated ephemeral VAPID keys; set EYESON_VAPID_PUBLIC_KEY and EYESON_VAPID_PRIVATE_KEY to persist subscriptions across restarts")
	}

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.StartPolling(ctx)
	defer srv.StopPolling()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("eyeson listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
