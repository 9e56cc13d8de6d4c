package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ambulance-tracker/internal/hub"
	"ambulance-tracker/internal/logger"
	trackingUC "ambulance-tracker/internal/usecase/tracking"
)

// TrackingHandler exposes the polling-device surface and the websocket
// endpoint. The endpoints keep the ESP32 firmware contract: GET with
// query-string parameters, plain-text response bodies.
type TrackingHandler struct {
	service *trackingUC.Service
	hub     *hub.Hub
}

func NewTrackingHandler(service *trackingUC.Service, h *hub.Hub) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		hub:     h,
	}
}

func (h *TrackingHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws", h.ServeWS)
	router.GET("/api/device-location", h.ReportDeviceLocation)
	router.GET("/location", h.TelemetrySink)
}

// ServeWS upgrades the request to the persistent viewer channel.
func (h *TrackingHandler) ServeWS(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}

// ReportDeviceLocation accepts a position report from a polling device.
func (h *TrackingHandler) ReportDeviceLocation(c *gin.Context) {
	id := c.Query("id")
	latStr := c.Query("lat")
	lonStr := c.Query("lon")

	if id == "" || latStr == "" || lonStr == "" {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		c.String(http.StatusBadRequest, "Invalid coordinates")
		return
	}

	req := &trackingUC.PolledReportRequest{
		HardwareID:   id,
		Latitude:     &lat,
		Longitude:    &lon,
		BatteryLevel: c.Query("battery"),
	}
	if speedStr := c.Query("speed"); speedStr != "" {
		speed, err := strconv.ParseFloat(speedStr, 64)
		if err != nil {
			c.String(http.StatusBadRequest, "Invalid speed")
			return
		}
		req.SpeedKmh = &speed
	}

	if _, err := h.service.ReportPolledLocation(c.Request.Context(), req); err != nil {
		if isValidationError(err) {
			c.String(http.StatusBadRequest, "Invalid coordinates")
			return
		}
		logger.Error("Failed to process device location",
			zap.String("device_id", id),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Internal error")
		return
	}

	c.String(http.StatusOK, "Data received")
}

// TelemetrySink is a best-effort sink for bare GPS pings; it never rejects.
func (h *TrackingHandler) TelemetrySink(c *gin.Context) {
	logger.Debug("Telemetry ping",
		zap.String("lat", c.Query("lat")),
		zap.String("lon", c.Query("lon")),
		zap.String("ip", c.ClientIP()),
	)

	c.String(http.StatusOK, "OK")
}
