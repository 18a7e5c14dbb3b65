// Package notify delivers garage alerts outside the process.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-ops/internal/models"
)

// Publisher hands an alert to some delivery channel.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
	Close()
}

// LogPublisher writes alerts to the process log. It is the fallback when no
// broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, n models.Notification) error {
	entry := log.WithFields(log.Fields{
		"alert_id":   n.ID,
		"level":      n.Level,
		"vehicle_id": n.VehicleID,
	})
	switch n.Level {
	case models.LevelDanger:
		entry.Error(n.Title + ": " + n.Message)
	case models.LevelWarning:
		entry.Warn(n.Title + ": " + n.Message)
	default:
		entry.Info(n.Title + ": " + n.Message)
	}
	return nil
}

func (LogPublisher) Close() {}

// Client is the subset of the paho client used for publishing.
type Client interface {
	IsConnected() bool
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes each alert as JSON to <prefix>/alerts/<level>.
type MQTTPublisher struct {
	client Client
	prefix string
	qos    byte
}

// NewMQTTPublisher connects to broker and returns a publisher using topic prefix.
func NewMQTTPublisher(broker, clientID, prefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, token.Error())
	}
	log.WithFields(log.Fields{"broker": broker, "client_id": clientID}).Info("Connected to MQTT broker")
	return newMQTTPublisher(client, prefix), nil
}

func newMQTTPublisher(client Client, prefix string) *MQTTPublisher {
	if prefix == "" {
		prefix = "garage"
	}
	return &MQTTPublisher{client: client, prefix: prefix, qos: 1}
}

// Topic returns the topic an alert of the given level is published on.
func (p *MQTTPublisher) Topic(level models.AlertLevel) string {
	return p.prefix + "/alerts/" + string(level)
}

func (p *MQTTPublisher) Publish(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode alert %s: %w", n.ID, err)
	}
	token := p.client.Publish(p.Topic(n.Level), p.qos, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *MQTTPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
