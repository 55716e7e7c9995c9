package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aquastream/internal/config"
	"aquastream/internal/handlers"
	"aquastream/internal/logger"
	"aquastream/internal/metrics"
	"aquastream/internal/notify"
	"aquastream/internal/repository"
	"aquastream/internal/repository/db"
	"aquastream/internal/server"
	"aquastream/internal/service"

	"github.com/coreos/go-systemd/v22/daemon"
)

const shutdownTimeout = 10 * time.Second

// @title                       aquastream API
// @version                     1.0
// @description                 Aquarium controller backend: live telemetry, actuator control, automation settings and history.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	configPath := flag.String("config", "", "path to config file (default configs/config.yml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	sqlDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DBPath)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	pub := newPublisher(cfg, log)
	defer func() { _ = pub.Close() }()

	m := metrics.New()
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Deps{
		Config:    cfg,
		Publisher: pub,
		Observer:  m,
		Logger:    log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if created, err := services.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		log.Fatalw("failed to seed admin user", "err", err)
	} else if created {
		log.Infow("admin_user_seeded", "username", cfg.Auth.AdminUsername)
	}

	if err := services.Loop.Start(ctx); err != nil {
		log.Fatalw("failed to start control loop", "err", err)
	}

	apiHandler := handlers.NewHandler(services, log.Named("http"), m.Handler())
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(cancel, srv, services, log)
}

// newPublisher connects to the MQTT broker when one is configured. A broker
// that is down at startup only disables publishing.
func newPublisher(cfg *config.Config, log *logger.Logger) notify.Publisher {
	if cfg.MQTT.Broker == "" {
		return notify.NopPublisher{}
	}
	pub, err := notify.NewRealPublisher(notify.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Topic:    cfg.MQTT.Topic,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	})
	if err != nil {
		log.Warnw("mqtt_unavailable", "broker", cfg.MQTT.Broker, "err", err)
		return notify.NopPublisher{}
	}
	log.Infow("mqtt_connected", "broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)
	return pub
}

// runHTTPServer binds the port, signals systemd readiness and serves in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	ln, err := srv.Listen(port, handler.InitRoutes())
	if err != nil {
		log.Fatalw("error binding http port", "err", err, "port", port)
	}
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warnw("sd_notify_failed", "err", err)
	} else if ok {
		log.Debugw("sd_notify_ready")
	}
	log.Infow("http_listening", "addr", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	// stop polling and drop pending timed offs before the store closes
	services.Loop.Stop()
	cancel()
}
