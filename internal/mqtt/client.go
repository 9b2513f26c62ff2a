package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/akbarsahata/LYWSD03MMC/internal/ble"
	"github.com/akbarsahata/LYWSD03MMC/internal/config"
	"github.com/akbarsahata/LYWSD03MMC/pkg/types"
)

const publishTimeout = 5 * time.Second

var (
	ErrNotConnected  = errors.New("mqtt client not connected")
	ErrClientStopped = errors.New("mqtt client stopped")
)

// Client publishes accepted readings to the broker. It implements ble.Sink.
type Client struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

var _ ble.Sink = (*Client)(nil)

func NewClient(cfg config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Broker announces "offline" if the gateway drops without Disconnect.
	opts.SetWill(statusTopic(cfg.MQTTTopicPrefix), "offline", 1, true)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
		c.publishStatus("online")
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(opts)
	return c, nil
}

// Connect waits for the initial connection to the broker, honouring ctx and Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return ErrClientStopped
	default:
	}

	if c.IsConnected() {
		return nil
	}

	// With ConnectRetry the token may stay pending while paho keeps retrying.
	token := c.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return ErrClientStopped
		default:
		}
	}
}

// Emit publishes r as JSON telemetry.
func (c *Client) Emit(r ble.Reading) error {
	return c.PublishReading(r.Telemetry())
}

// PublishReading publishes one reading to the sensor's telemetry topic with QoS 1.
func (c *Client) PublishReading(reading types.Reading) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	topic := TelemetryTopic(c.cfg.MQTTTopicPrefix, reading.Address)

	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}

	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	token := c.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if token.Error() != nil {
		c.logger.Error("failed to publish reading", "topic", topic, "error", token.Error())
		return fmt.Errorf("publish reading: %w", token.Error())
	}

	c.logger.Debug("published reading", "topic", topic, "mac", reading.Address, "ctr", reading.Counter)
	return nil
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect announces "offline", stops the client and closes the connection.
// Safe to call more than once; Connect returns ErrClientStopped afterwards.
func (c *Client) Disconnect() {
	stopped := false
	c.stopOnce.Do(func() {
		close(c.stopCh)
		stopped = true
	})
	if !stopped {
		return
	}

	if c.IsConnected() {
		c.publishStatus("offline")
	}
	if c.client != nil {
		c.client.Disconnect(250)
	}

	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
}

// publishStatus writes the retained gateway availability message.
func (c *Client) publishStatus(status string) {
	topic := statusTopic(c.cfg.MQTTTopicPrefix)
	token := c.client.Publish(topic, 1, true, status)
	if !token.WaitTimeout(publishTimeout) {
		c.logger.Warn("mqtt status publish timed out", "topic", topic, "status", status)
		return
	}
	if err := token.Error(); err != nil {
		c.logger.Warn("mqtt status publish failed", "topic", topic, "status", status, "error", err)
	}
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// TelemetryTopic returns "<prefix>/<mac>/telemetry" with the MAC lower-cased and stripped of colons.
func TelemetryTopic(prefix, mac string) string {
	id := strings.ToLower(strings.ReplaceAll(mac, ":", ""))
	return joinTopic(prefix, id, "telemetry")
}

func statusTopic(prefix string) string {
	return joinTopic(prefix, "gateway", "status")
}

func joinTopic(prefix string, parts ...string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return strings.Join(parts, "/")
	}
	return prefix + "/" + strings.Join(parts, "/")
}
