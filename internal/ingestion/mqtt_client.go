// Package ingestion accepts location reports from embedded devices over
// MQTT. A valid report behaves exactly like the HTTP polling surface:
// upsert into the registry, one broadcast to all viewers.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "ambulance-tracker/internal/domain/tracking"
	"ambulance-tracker/internal/logger"
	trackingUC "ambulance-tracker/internal/usecase/tracking"
	pkgmqtt "ambulance-tracker/pkg/mqtt"
)

// LocationReporter is the slice of the tracking service ingestion needs.
type LocationReporter interface {
	ReportPolledLocation(ctx context.Context, req *trackingUC.PolledReportRequest) (domain.DeviceRecord, error)
}

// MQTTIngestionConfig describes the topics and MQTT connection parameters.
type MQTTIngestionConfig struct {
	ClientConfig  *pkgmqtt.Config
	LocationTopic string
	StatusTopic   string
	QoS           byte
	ReportTimeout time.Duration
}

// MQTTIngestionClient wires MQTT messages into the tracking service.
type MQTTIngestionClient struct {
	cfg      *MQTTIngestionConfig
	client   *pkgmqtt.Client
	reporter LocationReporter
	metrics  *MetricsTracker

	mu            sync.Mutex
	started       bool
	subscriptions []string
}

// NewMQTTIngestionClient builds a new MQTT client for ingestion.
func NewMQTTIngestionClient(cfg *MQTTIngestionConfig, reporter LocationReporter, metrics *MetricsTracker) (*MQTTIngestionClient, error) {
	if cfg == nil || cfg.ClientConfig == nil {
		return nil, errors.New("mqtt ingestion config is not configured")
	}
	if reporter == nil {
		return nil, errors.New("location reporter is required")
	}
	if metrics == nil {
		metrics = NewMetricsTracker()
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = 5 * time.Second
	}

	client := pkgmqtt.NewClient(cfg.ClientConfig)
	return &MQTTIngestionClient{
		cfg:      cfg,
		client:   client,
		reporter: reporter,
		metrics:  metrics,
	}, nil
}

// Start establishes the MQTT connection and subscribes to the topics.
func (c *MQTTIngestionClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	type subscription struct {
		topic   string
		handler pkgmqtt.MessageHandler
	}

	subs := []subscription{}
	if c.cfg.LocationTopic != "" {
		subs = append(subs, subscription{
			topic:   c.cfg.LocationTopic,
			handler: c.handleLocationMessage,
		})
	}
	if c.cfg.StatusTopic != "" {
		subs = append(subs, subscription{
			topic:   c.cfg.StatusTopic,
			handler: c.handleStatusMessage,
		})
	}

	if len(subs) == 0 {
		return errors.New("no MQTT topics configured for ingestion")
	}

	qos := c.cfg.QoS
	for _, sub := range subs {
		if err := c.client.Subscribe(sub.topic, qos, sub.handler); err != nil {
			c.client.Disconnect()
			return fmt.Errorf("subscribe failed for topic %s: %w", sub.topic, err)
		}
		c.subscriptions = append(c.subscriptions, sub.topic)
		logger.Info("Listening for MQTT messages",
			zap.String("topic", sub.topic),
		)
	}

	c.started = true
	return nil
}

// Stop unsubscribes and disconnects from the broker.
func (c *MQTTIngestionClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}

	if len(c.subscriptions) > 0 {
		if err := c.client.Unsubscribe(c.subscriptions...); err != nil {
			logger.Warn("Failed to unsubscribe from MQTT topics", zap.Error(err))
		}
	}

	c.client.Disconnect()
	c.started = false
	c.subscriptions = nil
}

// Metrics returns current ingestion metrics.
func (c *MQTTIngestionClient) Metrics() IngestMetrics {
	return c.metrics.Snapshot()
}

// handleLocationMessage decodes a GPS report, validates it and hands it to
// the tracking service under the polled-device identity rules.
func (c *MQTTIngestionClient) handleLocationMessage(_ string, payload []byte) {
	c.metrics.Update(func(m *IngestMetrics) {
		m.MessagesReceived++
	})

	msg, err := ParseLocationMessage(payload)
	if err != nil {
		logger.Warn("Invalid location payload", zap.Error(err))
		c.metrics.Update(func(m *IngestMetrics) {
			m.MessagesFailed++
		})
		return
	}

	if err := ValidateLocationMessage(msg); err != nil {
		logger.Warn("Rejected location message",
			zap.String("device_id", msg.DeviceID),
			zap.Error(err),
		)
		c.metrics.Update(func(m *IngestMetrics) {
			m.MessagesFailed++
		})
		return
	}

	req := &trackingUC.PolledReportRequest{
		HardwareID: msg.DeviceID,
		Latitude:   &msg.Latitude,
		Longitude:  &msg.Longitude,
		SpeedKmh:   msg.SpeedKmh,
	}
	if msg.BatteryLevel != nil {
		req.BatteryLevel = strconv.FormatFloat(*msg.BatteryLevel, 'f', -1, 64)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ReportTimeout)
	defer cancel()

	if _, err := c.reporter.ReportPolledLocation(ctx, req); err != nil {
		logger.Warn("Failed to process location report",
			zap.String("device_id", msg.DeviceID),
			zap.Error(err),
		)
		c.metrics.Update(func(m *IngestMetrics) {
			m.MessagesFailed++
		})
		return
	}

	c.metrics.Update(func(m *IngestMetrics) {
		m.MessagesProcessed++
		m.LastProcessedAt = time.Now()
	})
}

// handleStatusMessage currently logs status updates (placeholder for
// future handling).
func (c *MQTTIngestionClient) handleStatusMessage(topic string, payload []byte) {
	msg, err := ParseStatusMessage(payload)
	if err != nil {
		logger.Warn("Invalid status payload",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}

	logger.Info("Device status update",
		zap.String("device_id", msg.DeviceID),
		zap.String("status", msg.Status),
	)
}
