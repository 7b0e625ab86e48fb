package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "thermometer_alarm/docs"
	"thermometer_alarm/internal/config"
	"thermometer_alarm/internal/device"
	"thermometer_alarm/internal/directory"
	"thermometer_alarm/internal/handlers"
	"thermometer_alarm/internal/logger"
	"thermometer_alarm/internal/notify"
	"thermometer_alarm/internal/repository"
	"thermometer_alarm/internal/repository/db"
	"thermometer_alarm/internal/server"
	"thermometer_alarm/internal/service"
)

const shutdownTimeout = 10 * time.Second

// closer collects teardown steps, run in reverse order.
type closer []func()

func (c *closer) add(f func()) { *c = append(*c, f) }

func (c closer) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// @title Thermometer Alarm API
// @version 1.0
// @description Dashboard for a networked temperature sensor.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config.yml, .env and environment
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.GetWithFormat(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	var cleanup closer
	defer cleanup.run()

	// open DB
	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	cleanup.add(func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	})

	// device address directory
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resolver, closeDir, err := directory.Open(ctx, cfg.Directory)
	if err != nil {
		log.Fatalw("failed to open device directory", "err", err, "driver", cfg.Directory.Driver)
	}
	cleanup.add(closeDir)

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	hub := handlers.NewHub(log.Named("ws"))
	cleanup.add(hub.Close)
	recorder := service.NewRecorder(repos.EventRepo, log.Named("events"))
	cleanup.add(recorder.Close)

	publishers := device.Fanout{hub, recorder}
	publishers = append(publishers, openSinks(cfg, log, &cleanup)...)

	session := device.NewSession(sessionOptions(cfg.Device), resolver,
		device.NewWSDialer(cfg.Device.DialTimeout), newBuzzer(cfg.Device, log), publishers, log.Named("device"))
	cleanup.add(session.Close)

	services := service.NewService(repos, session, service.AuthOptions{
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
	})
	if err := services.Dashboard.Restore(ctx); err != nil {
		log.Warnw("failed to restore settings", "err", err)
	}
	apiHandler := handlers.NewHandler(services, hub, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func sessionOptions(c config.DeviceConfig) device.Options {
	return device.Options{
		Path:           c.Path,
		DialTimeout:    c.DialTimeout,
		RetryInterval:  c.RetryInterval,
		ProbeTimeout:   c.ProbeTimeout,
		BuzzerInterval: c.BuzzerInterval,
		WindowSize:     c.WindowSize,
		Threshold:      c.DefaultThreshold,
	}
}

func newBuzzer(c config.DeviceConfig, log *logger.Logger) device.Buzzer {
	if c.Buzzer == config.BuzzerBell {
		return device.NewBellBuzzer(os.Stdout)
	}
	return device.NewLogBuzzer(log.Named("buzzer"))
}

// openSinks connects the optional MQTT and Telegram notifiers. A sink that
// fails to start is logged and skipped.
func openSinks(cfg *config.Config, log *logger.Logger, cleanup *closer) []device.Publisher {
	var sinks []device.Publisher
	if cfg.MQTT.Enabled {
		pub, err := notify.DialMQTT(cfg.MQTT, log.Named("mqtt"))
		if err != nil {
			log.Errorw("mqtt_unavailable", "err", err, "broker", cfg.MQTT.Broker)
		} else {
			sinks = append(sinks, pub)
			cleanup.add(pub.Close)
		}
	}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log.Named("telegram"))
		if err != nil {
			log.Errorw("telegram_unavailable", "err", err)
		} else {
			sinks = append(sinks, tg)
			cleanup.add(tg.Close)
		}
	}
	return sinks
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_server_starting", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
