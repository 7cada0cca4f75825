// Package notify implements the crash-notification Notifier contract over
// MQTT. The original project's apprise_config_file names a config for the
// Python apprise multi-backend notification library, which supports MQTT as
// one of many targets; this implementation picks MQTT as the concrete
// backend (already part of the retrieval pack) and treats the config file
// as a small MQTT-specific YAML document naming a broker URL, topic, and
// client ID.
package notify

import (
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// publishTimeout bounds how long Notify waits for the broker to
// acknowledge the publish before giving up.
const publishTimeout = 10 * time.Second

// mqttConfig is the small MQTT-specific document the apprise_config_file
// path is expected to contain.
type mqttConfig struct {
	BrokerURL string `yaml:"broker_url"`
	Topic     string `yaml:"topic"`
	ClientID  string `yaml:"client_id"`
}

// payload is the JSON document published to the configured topic, encoded
// with json-iterator/go for parity with the rest of the pack's use of that
// library rather than encoding/json.
type payload struct {
	Header         string `json:"header"`
	Body           string `json:"body"`
	AttachmentPath string `json:"attachment_path,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Notifier implements crashreport.Notifier over MQTT at QoS 1.
type Notifier struct {
	log *logrus.Logger
}

// New constructs a Notifier.
func New(log *logrus.Logger) *Notifier {
	return &Notifier{log: log}
}

// Notify connects to the broker named in configPath, publishes the report
// as JSON, and disconnects. Any error is logged and swallowed — this path
// must never throw.
func (n *Notifier) Notify(header, body, attachmentPath, configPath string) bool {
	cfg, err := loadMQTTConfig(configPath)
	if err != nil {
		if n.log != nil {
			n.log.WithError(err).Warn("notify: failed to load mqtt config, dropping notification")
		}
		return false
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(publishTimeout)
	client := mqtt.NewClient(opts)

	if token := client.Connect(); !token.WaitTimeout(publishTimeout) || token.Error() != nil {
		if n.log != nil {
			n.log.WithError(token.Error()).Warn("notify: mqtt connect failed")
		}
		return false
	}
	defer client.Disconnect(250)

	body2 := payload{
		Header:         header,
		Body:           body,
		AttachmentPath: attachmentPath,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	encoded, err := jsoniter.Marshal(body2)
	if err != nil {
		if n.log != nil {
			n.log.WithError(err).Warn("notify: failed to encode payload")
		}
		return false
	}

	token := client.Publish(cfg.Topic, 1, false, encoded)
	if !token.WaitTimeout(publishTimeout) {
		if n.log != nil {
			n.log.Warn("notify: publish timed out")
		}
		return false
	}
	if token.Error() != nil {
		if n.log != nil {
			n.log.WithError(token.Error()).Warn("notify: publish failed")
		}
		return false
	}
	return true
}

func loadMQTTConfig(path string) (*mqttConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("notify: read %s: %w", path, err)
	}
	var cfg mqttConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("notify: parse %s: %w", path, err)
	}
	if cfg.BrokerURL == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("notify: %s missing broker_url or topic", path)
	}
	return &cfg, nil
}
