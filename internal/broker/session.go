// Package broker owns the long-lived MQTT connection: connect and reconnect,
// the subscription feeding the ingestion path, and the retained online/offline
// status publishes.
package broker

import (
	"encoding/json"
	"fmt"
	"time"

	"sites-ingestion-service/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sink receives every inbound message exactly once per delivery and exposes
// the process-wide counters published on the status topic.
type Sink interface {
	HandleMessage(topic string, payload []byte)
	Counts() (messages, errors uint64)
}

// statusPayload is the body of the retained status publish.
type statusPayload struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	MessageCount uint64    `json:"messageCount"`
	ErrorCount   uint64    `json:"errorCount"`
}

// disconnectQuiesceMs gives paho time to flush the retained offline publish
// before the transport closes.
const disconnectQuiesceMs = 250

// Session is the persistent broker connection.
type Session struct {
	cfg    *config.Config
	log    zerolog.Logger
	sink   Sink
	client mqtt.Client
}

// NewSession wires the paho client around the given sink. Connect must be
// called before any messages flow.
func NewSession(cfg *config.Config, log zerolog.Logger, sink Sink) *Session {
	s := &Session{cfg: cfg, log: log, sink: sink}

	clientID := fmt.Sprintf("%s-%s", cfg.MQTTClientID, uuid.NewString()[:8])
	will, _ := json.Marshal(statusPayload{Status: "offline", Timestamp: time.Now()})

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBrokerURL).
		SetClientID(clientID).
		SetKeepAlive(time.Duration(cfg.MQTTKeepaliveSec) * time.Second).
		SetConnectTimeout(time.Duration(cfg.MQTTConnectTimeoutSec) * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Duration(cfg.MQTTReconnectPeriodMs) * time.Millisecond).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Duration(cfg.MQTTReconnectPeriodMs) * time.Millisecond).
		SetBinaryWill(cfg.MQTTStatusTopic, will, 1, true)

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	opts.SetOnConnectHandler(s.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Error().Err(err).Msg("Broker connection lost, reconnecting")
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// Connect establishes the broker connection. Transient connect failures are
// retried by paho; this only errors on a configuration-level refusal.
func (s *Session) Connect() error {
	token := s.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to broker %s: %w", s.cfg.MQTTBrokerURL, err)
	}
	return nil
}

// IsConnected reports broker connectivity for health reporting.
func (s *Session) IsConnected() bool {
	return s.client != nil && s.client.IsConnectionOpen()
}

// onConnect runs on every successful connect, including reconnects: publish
// the retained online status and (re)establish the subscription.
func (s *Session) onConnect(client mqtt.Client) {
	s.log.Info().Str("broker", s.cfg.MQTTBrokerURL).Msg("Connected to broker")

	s.publishStatus(client, "online")

	qos := byte(s.cfg.MQTTQoS)
	token := client.Subscribe(s.cfg.MQTTTopic, qos, func(_ mqtt.Client, m mqtt.Message) {
		s.sink.HandleMessage(m.Topic(), m.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		// Not fatal: the next reconnect retries the subscription.
		s.log.Error().Err(err).Str("topic", s.cfg.MQTTTopic).Msg("Subscribe failed")
		return
	}
	s.log.Info().Str("topic", s.cfg.MQTTTopic).Int("qos", s.cfg.MQTTQoS).Msg("Subscribed")
}

// Close publishes the retained offline status, waits for the broker to take
// it, and then tears down the transport.
func (s *Session) Close() {
	if s.client == nil || !s.client.IsConnectionOpen() {
		return
	}
	s.publishStatus(s.client, "offline")
	s.client.Disconnect(disconnectQuiesceMs)
	s.log.Info().Msg("Broker session closed")
}

func (s *Session) publishStatus(client mqtt.Client, status string) {
	messages, errors := s.sink.Counts()
	body, err := json.Marshal(statusPayload{
		Status:       status,
		Timestamp:    time.Now(),
		MessageCount: messages,
		ErrorCount:   errors,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal status payload")
		return
	}
	token := client.Publish(s.cfg.MQTTStatusTopic, 1, true, body)
	if !token.WaitTimeout(5 * time.Second) {
		s.log.Warn().Str("status", status).Msg("Timed out waiting for status publish")
		return
	}
	if err := token.Error(); err != nil {
		s.log.Error().Err(err).Str("status", status).Msg("Status publish failed")
	}
}
