package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures the MQTT mirror.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// publisher is the subset of mqtt.Client the notifier uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes notifications as JSON to an MQTT broker, so home
// automation systems can react to budget warnings.
type MQTTNotifier struct {
	client     publisher
	topic      string
	timeout    time.Duration
	disconnect func()
}

// NewMQTTNotifier connects to the broker and returns a notifier publishing
// under <prefix>/budget_alert and <prefix>/notification.
func NewMQTTNotifier(cfg MQTTConfig) (*MQTTNotifier, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "wattsense"
	}

	opts := mqtt.NewClientOptions()
	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	n := newMQTTNotifier(client, cfg.TopicPrefix)
	n.disconnect = func() { client.Disconnect(250) }
	return n, nil
}

func newMQTTNotifier(client publisher, prefix string) *MQTTNotifier {
	if prefix == "" {
		prefix = "wattsense"
	}
	return &MQTTNotifier{
		client:  client,
		topic:   strings.TrimSuffix(prefix, "/"),
		timeout: 10 * time.Second,
	}
}

func (n *MQTTNotifier) Name() string { return "mqtt" }

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	if n.disconnect != nil {
		n.disconnect()
	}
}

func (n *MQTTNotifier) Send(ctx context.Context, msg Message) error {
	topic := n.topic + "/" + eventName(msg)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding mqtt payload: %w", err)
	}

	token := n.client.Publish(topic, 1, false, body)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(n.timeout):
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}
