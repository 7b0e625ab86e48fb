package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"thermometer_alarm/internal/config"
	"thermometer_alarm/internal/logger"
	"thermometer_alarm/internal/models"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQuiesceMillis  = 250
)

// Topic suffixes under the configured prefix.
const (
	TopicReadings = "readings"
	TopicAlerts   = "alerts"
	TopicStatus   = "status"
)

// mqttClient is the part of mqtt.Client the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher mirrors readings, alert transitions and connection status to
// a broker. Publish never waits for the broker.
type MQTTPublisher struct {
	client mqttClient
	prefix string
	qos    byte
	log    *logger.Logger
}

type readingPayload struct {
	Time         time.Time `json:"time"`
	TemperatureC float64   `json:"temperature_c"`
	ThresholdC   float64   `json:"threshold_c"`
	Recorded     bool      `json:"recorded"`
}

type alertPayload struct {
	Time         time.Time `json:"time"`
	Armed        bool      `json:"armed"`
	TemperatureC float64   `json:"temperature_c"`
	ThresholdC   float64   `json:"threshold_c"`
}

type statusPayload struct {
	Time    time.Time            `json:"time"`
	Status  models.SessionStatus `json:"status"`
	Address string               `json:"address,omitempty"`
}

// DialMQTT connects to the broker in cfg.
func DialMQTT(cfg config.MQTTConfig, log *logger.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Infow("mqtt_connected", "broker", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "err", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return NewMQTTPublisher(client, cfg.TopicPrefix, cfg.QoS, log), nil
}

func NewMQTTPublisher(client mqttClient, prefix string, qos byte, log *logger.Logger) *MQTTPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &MQTTPublisher{client: client, prefix: strings.Trim(prefix, "/"), qos: qos, log: log}
}

func (p *MQTTPublisher) Topic(suffix string) string {
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "/" + suffix
}

func (p *MQTTPublisher) Publish(ev models.SessionEvent) {
	switch ev.Kind {
	case models.KindReading:
		if ev.Reading == nil {
			return
		}
		p.send(TopicReadings, false, readingPayload{
			Time:         ev.Reading.Time,
			TemperatureC: ev.Reading.TemperatureC,
			ThresholdC:   ev.Reading.ThresholdC,
			Recorded:     ev.Recorded,
		})
	case models.KindAlert:
		a := alertPayload{Time: ev.At, Armed: ev.Armed}
		if ev.Reading != nil {
			a.TemperatureC, a.ThresholdC = ev.Reading.TemperatureC, ev.Reading.ThresholdC
		}
		p.send(TopicAlerts, false, a)
	case models.KindStatus:
		// retained so late subscribers see the current state
		p.send(TopicStatus, true, statusPayload{Time: ev.At, Status: ev.Status, Address: ev.Address})
	}
}

func (p *MQTTPublisher) send(suffix string, retained bool, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		p.log.Errorw("mqtt_encode_failed", "topic", suffix, "err", err)
		return
	}
	topic := p.Topic(suffix)
	token := p.client.Publish(topic, p.qos, retained, body)
	go func() {
		if !token.WaitTimeout(mqttPublishTimeout) {
			p.log.Warnw("mqtt_publish_timeout", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warnw("mqtt_publish_failed", "topic", topic, "err", err)
		}
	}()
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(mqttQuiesceMillis)
}
