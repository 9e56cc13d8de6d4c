package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ambulance-tracker/internal/config"
	"ambulance-tracker/internal/hub"
	"ambulance-tracker/internal/infrastructure/memory"
	"ambulance-tracker/internal/ingestion"
	"ambulance-tracker/internal/logger"
	"ambulance-tracker/internal/routes"
	notificationUC "ambulance-tracker/internal/usecase/notification"
	trackingUC "ambulance-tracker/internal/usecase/tracking"
	pkgmqtt "ambulance-tracker/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
		zap.Float64("dispensary_lat", cfg.Tracking.DispensaryLatitude),
		zap.Float64("dispensary_lon", cfg.Tracking.DispensaryLongitude),
		zap.Float64("proximity_threshold_m", cfg.Tracking.ProximityThresholdM),
	)

	registry := memory.NewDeviceRegistry()
	queue := memory.NewNotificationQueue()

	broadcastHub := hub.New()
	trackingService := trackingUC.NewService(registry, broadcastHub)
	notificationService := notificationUC.NewService(queue, broadcastHub)

	broadcastHub.SetHandlers(hub.Handlers{
		Snapshot: trackingService.Snapshot,
		OnLocationReport: func(clientID string, report hub.ReportPayload) {
			req := &trackingUC.SessionReportRequest{
				Latitude:     &report.Latitude,
				Longitude:    &report.Longitude,
				BatteryLevel: report.BatteryLevel,
				SpeedKmh:     report.SpeedKmh,
			}
			if _, err := trackingService.ReportSessionLocation(context.Background(), clientID, req); err != nil {
				logger.Warn("Rejected session location report",
					zap.String("client_id", clientID),
					zap.Error(err),
				)
			}
		},
		OnDisconnect: func(clientID string) {
			trackingService.Disconnect(context.Background(), clientID)
		},
	})

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go broadcastHub.Run(hubCtx)

	var ingestMetrics *ingestion.MetricsTracker
	var mqttClient *ingestion.MQTTIngestionClient
	if cfg.MQTT.Enabled {
		ingestMetrics = ingestion.NewMetricsTracker()
		mqttClient, err = ingestion.NewMQTTIngestionClient(&ingestion.MQTTIngestionConfig{
			ClientConfig: &pkgmqtt.Config{
				Broker:               cfg.MQTT.Broker,
				ClientID:             cfg.MQTT.ClientID,
				Username:             cfg.MQTT.Username,
				Password:             cfg.MQTT.Password,
				CleanSession:         true,
				KeepAlive:            cfg.MQTT.KeepAlive,
				ConnectTimeout:       cfg.MQTT.ConnectTimeout,
				AutoReconnect:        true,
				MaxReconnectInterval: time.Minute,
			},
			LocationTopic: cfg.MQTT.LocationTopic,
			StatusTopic:   cfg.MQTT.StatusTopic,
			QoS:           byte(cfg.MQTT.QoS),
		}, trackingService, ingestMetrics)
		if err != nil {
			logger.Fatal("Failed to configure MQTT ingestion", zap.Error(err))
		}
		if err := mqttClient.Start(); err != nil {
			logger.Fatal("Failed to start MQTT ingestion", zap.Error(err))
		}
		defer mqttClient.Stop()
	}

	router := routes.SetupRoutes(cfg, &routes.Dependencies{
		Tracking:      trackingService,
		Notifications: notificationService,
		Hub:           broadcastHub,
		IngestMetrics: ingestMetrics,
	})

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "9090"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the websocket endpoint holds its connection
		// open for the client's lifetime.
		IdleTimeout: 60 * time.Second,
	}

	// Start goroutine
	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}
