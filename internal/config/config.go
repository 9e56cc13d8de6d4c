package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Tracking  TrackingConfig
	MQTT      MQTTConfig
	Routing   RoutingConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

// TrackingConfig describes the fixed destination and the proximity rule.
type TrackingConfig struct {
	DispensaryLatitude  float64
	DispensaryLongitude float64
	ProximityThresholdM float64

	// ESP32IdleEviction is parsed but not implemented: polling devices have
	// no disconnect signal and the eviction policy is unresolved. Startup
	// fails if it is enabled so the gap stays visible.
	ESP32IdleEviction bool
}

type MQTTConfig struct {
	Enabled        bool
	Broker         string
	ClientID       string
	Username       string
	Password       string
	LocationTopic  string
	StatusTopic    string
	QoS            int
	KeepAlive      int
	ConnectTimeout int
}

type RoutingConfig struct {
	BaseURL        string
	Profile        string
	TimeoutSeconds int
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Tracking: TrackingConfig{
			DispensaryLatitude:  viper.GetFloat64("DISPENSARY_LATITUDE"),
			DispensaryLongitude: viper.GetFloat64("DISPENSARY_LONGITUDE"),
			ProximityThresholdM: viper.GetFloat64("PROXIMITY_THRESHOLD_METERS"),
			ESP32IdleEviction:   viper.GetBool("ESP32_IDLE_EVICTION"),
		},
		MQTT: MQTTConfig{
			Enabled:        viper.GetBool("MQTT_ENABLED"),
			Broker:         viper.GetString("MQTT_BROKER"),
			ClientID:       viper.GetString("MQTT_CLIENT_ID"),
			Username:       viper.GetString("MQTT_USERNAME"),
			Password:       viper.GetString("MQTT_PASSWORD"),
			LocationTopic:  viper.GetString("MQTT_LOCATION_TOPIC"),
			StatusTopic:    viper.GetString("MQTT_STATUS_TOPIC"),
			QoS:            viper.GetInt("MQTT_QOS"),
			KeepAlive:      viper.GetInt("MQTT_KEEPALIVE_SECONDS"),
			ConnectTimeout: viper.GetInt("MQTT_CONNECT_TIMEOUT_SECONDS"),
		},
		Routing: RoutingConfig{
			BaseURL:        viper.GetString("ROUTING_BASE_URL"),
			Profile:        viper.GetString("ROUTING_PROFILE"),
			TimeoutSeconds: viper.GetInt("ROUTING_TIMEOUT_SECONDS"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults() {
	// The dispensary the original deployment tracked; overridable per site.
	viper.SetDefault("DISPENSARY_LATITUDE", 12.841634120899181)
	viper.SetDefault("DISPENSARY_LONGITUDE", 80.1565623625399)
	viper.SetDefault("PROXIMITY_THRESHOLD_METERS", 100.0)

	viper.SetDefault("MQTT_QOS", 1)
	viper.SetDefault("MQTT_KEEPALIVE_SECONDS", 30)
	viper.SetDefault("MQTT_CONNECT_TIMEOUT_SECONDS", 10)
	viper.SetDefault("MQTT_LOCATION_TOPIC", "ambulances/+/location")
	viper.SetDefault("MQTT_STATUS_TOPIC", "ambulances/+/status")

	viper.SetDefault("ROUTING_BASE_URL", "https://router.project-osrm.org")
	viper.SetDefault("ROUTING_PROFILE", "driving")
	viper.SetDefault("ROUTING_TIMEOUT_SECONDS", 10)

	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 50.0)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 100)

	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"})
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "X-Request-ID"})
	viper.SetDefault("CORS_MAX_AGE", 300)
}

func (c *Config) validate() error {
	if c.Tracking.DispensaryLatitude < -90 || c.Tracking.DispensaryLatitude > 90 {
		return fmt.Errorf("DISPENSARY_LATITUDE out of range: %f", c.Tracking.DispensaryLatitude)
	}
	if c.Tracking.DispensaryLongitude < -180 || c.Tracking.DispensaryLongitude > 180 {
		return fmt.Errorf("DISPENSARY_LONGITUDE out of range: %f", c.Tracking.DispensaryLongitude)
	}
	if c.Tracking.ProximityThresholdM <= 0 {
		return fmt.Errorf("PROXIMITY_THRESHOLD_METERS must be positive, got %f", c.Tracking.ProximityThresholdM)
	}
	if c.Tracking.ESP32IdleEviction {
		return errors.New("ESP32_IDLE_EVICTION is not implemented: polling devices are never auto-evicted")
	}
	return nil
}
