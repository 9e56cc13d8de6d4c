// Command viewer is a headless map client: it mirrors the registry over
// the websocket channel and logs proximity state, arrival notices and
// aggregate counts.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ambulance-tracker/internal/config"
	"ambulance-tracker/internal/geo"
	"ambulance-tracker/internal/hub"
	"ambulance-tracker/internal/logger"
	"ambulance-tracker/internal/routing"
	"ambulance-tracker/internal/view"
)

func main() {
	serverURL := flag.String("server", "ws://localhost:9090/ws", "websocket endpoint of the tracking server")
	lat := flag.Float64("lat", 12.841634120899181, "dispensary latitude")
	lon := flag.Float64("lon", 80.1565623625399, "dispensary longitude")
	threshold := flag.Float64("threshold", 100, "proximity threshold in meters")
	routingURL := flag.String("routing", "https://router.project-osrm.org", "OSRM base URL (empty to disable route summaries)")
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	var provider routing.Provider
	if *routingURL != "" {
		provider = routing.NewOSRMClient(config.RoutingConfig{
			BaseURL:        *routingURL,
			Profile:        "driving",
			TimeoutSeconds: 10,
		})
	}

	sessionView := view.New(view.Config{
		Dispensary:          geo.Point{Latitude: *lat, Longitude: *lon},
		ProximityThresholdM: *threshold,
	}, provider, func(notice view.ArrivalNotice) {
		logger.Info("Ambulance arrived at dispensary",
			zap.String("device_id", notice.DeviceID),
			zap.Int("number", notice.Number),
		)
	})

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		logger.Fatal("Failed to connect to tracking server",
			zap.String("server", *serverURL),
			zap.Error(err),
		)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var env hub.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				logger.Warn("Connection to server lost", zap.Error(err))
				return
			}

			switch env.Type {
			case hub.EventConnectionEstablished:
				logger.Info("Connected", zap.String("client_id", env.ClientID))

			case hub.EventLocationUpdate, hub.EventDeviceRemoved:
				sessionView.Apply(env)
				online, atDispensary := sessionView.Counts()
				logger.Info("View updated",
					zap.String("type", env.Type),
					zap.String("device_id", env.DeviceID),
					zap.Int("online", online),
					zap.Int("at_dispensary", atDispensary),
				)

			case hub.EventNotificationCreated:
				if env.Notification != nil {
					logger.Info("Notification",
						zap.String("target_id", env.DeviceID),
						zap.String("message", env.Notification.Message),
						zap.String("notification_type", env.Notification.Type),
					)
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
}
