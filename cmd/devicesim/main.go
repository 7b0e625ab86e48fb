package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"thermometer_alarm/internal/config"
	"thermometer_alarm/internal/logger"
	"thermometer_alarm/internal/server"
	"thermometer_alarm/internal/simulator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.GetWithFormat(cfg.Log.Level, cfg.Log.Format).Named("devicesim")
	defer func() { _ = log.Sync() }()

	thermal := simulator.NewThermal(cfg.Simulator.TargetC, simulator.NoiseC, time.Now().UnixNano())
	dev := simulator.NewDevice(thermal, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	dev.Routes(router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dev.Run(ctx, cfg.Simulator.Tick)

	srv := &server.Server{}
	go func() {
		log.Infow("device_simulator_listening", "port", cfg.Simulator.Port, "target_c", cfg.Simulator.TargetC)
		if err := srv.Run(cfg.Simulator.Port, router); err != nil {
			log.Fatalw("error starting simulator", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("simulator forced to shutdown", "err", err)
	}
}
