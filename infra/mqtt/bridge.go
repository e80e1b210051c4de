// Package mqtt bridges broadcast-channel location samples onto an MQTT
// broker for dashboards and fleet tooling that cannot join the UDP segment.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/infra/logger"
)

// Config holds the optional broker bridge settings.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
}

// SetDefaults applies default values to the configuration.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "swiftdrop-hub"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "hub/location"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Enabled && c.Broker == "" {
		return fmt.Errorf("broker url required when bridge enabled")
	}
	return nil
}

const connectTimeout = 5 * time.Second

// LocationBridge publishes location samples as retained JSON messages, one
// topic per courier. QoS 0: the bridge mirrors the lossy channel, it does
// not upgrade its guarantees.
type LocationBridge struct {
	client pahomqtt.Client
	prefix string
	log    logger.Logger
}

type locationPayload struct {
	CourierID string  `json:"courier_id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	At        int64   `json:"at_ms"`
}

// NewLocationBridge connects to the broker and returns the bridge.
func NewLocationBridge(cfg Config, log logger.Logger) (*LocationBridge, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", cfg.Broker, err)
	}
	log.Infof("location bridge connected to %s", cfg.Broker)
	return &LocationBridge{client: client, prefix: cfg.TopicPrefix, log: log}, nil
}

// PublishLocation emits one sample. Implements broadcast.Publisher.
func (b *LocationBridge) PublishLocation(s model.LocationSample) error {
	payload, err := json.Marshal(locationPayload{
		CourierID: s.CourierID,
		Lat:       s.Position.Lat,
		Lon:       s.Position.Lon,
		At:        s.At.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("mqtt: marshal location: %w", err)
	}
	topic := b.prefix + "/" + s.CourierID
	token := b.client.Publish(topic, 0, true, payload)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (b *LocationBridge) Close() {
	b.client.Disconnect(250)
}
