package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultKeepAlive      = 60 * time.Second
	defaultConnectTimeout = 10 * time.Second
	disconnectQuiesceMs   = 250
)

// Client owns the broker connection. Subscriber and Publisher share its
// native client. Subscriptions do not survive a clean-session reconnect, so
// callers register reconnect hooks to restore them.
type Client struct {
	client mqtt.Client
	config ClientConfig

	mu          sync.Mutex
	connects    int
	onReconnect []func()
}

// ClientConfig holds MQTT client configuration
type ClientConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	KeepAlive      time.Duration // default 60s
	ConnectTimeout time.Duration // bound on the initial connect, default 10s
}

// NewClient connects to the broker. Auto-reconnect is enabled; the first
// connect must succeed within ConnectTimeout.
func NewClient(config ClientConfig) (*Client, error) {
	if config.KeepAlive <= 0 {
		config.KeepAlive = defaultKeepAlive
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaultConnectTimeout
	}

	c := &Client{config: config}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetDefaultPublishHandler(c.handleUnrouted)
	opts.SetOnConnectHandler(c.handleConnect)
	opts.SetConnectionLostHandler(c.handleConnectionLost)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(config.KeepAlive)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(config.ConnectTimeout)
	// Landmark handlers only hand frames to per-session mailboxes
	opts.SetOrderMatters(false)

	c.client = mqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(config.ConnectTimeout) {
		c.client.Disconnect(0)
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s after %s", config.Broker, config.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", config.Broker, err)
	}

	return c, nil
}

// GetNativeClient returns the underlying paho client
func (c *Client) GetNativeClient() mqtt.Client {
	return c.client
}

// IsConnected reports whether the broker connection is currently up
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// OnReconnect registers fn to run after every connect except the first.
// Hooks run on paho's callback goroutine.
func (c *Client) OnReconnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReconnect = append(c.onReconnect, fn)
}

// Close disconnects, allowing in-flight work to finish
func (c *Client) Close() {
	c.client.Disconnect(disconnectQuiesceMs)
	slog.Info("mqtt client: disconnected", "client_id", c.config.ClientID)
}

func (c *Client) handleConnect(mqtt.Client) {
	c.mu.Lock()
	c.connects++
	n := c.connects
	hooks := append([]func(){}, c.onReconnect...)
	c.mu.Unlock()

	if n == 1 {
		slog.Info("mqtt client: connected", "broker", c.config.Broker, "client_id", c.config.ClientID)
		return
	}

	slog.Info("mqtt client: reconnected", "broker", c.config.Broker, "client_id", c.config.ClientID, "connects", n)
	for _, fn := range hooks {
		fn()
	}
}

func (c *Client) handleConnectionLost(_ mqtt.Client, err error) {
	slog.Warn("mqtt client: connection lost, reconnecting", "client_id", c.config.ClientID, "error", err)
}

// handleUnrouted sees messages that match no subscription handler
func (c *Client) handleUnrouted(_ mqtt.Client, msg mqtt.Message) {
	slog.Debug("mqtt client: unrouted message", "topic", msg.Topic())
}
