package middleware

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/display"
)

const (
	mqttQoS         = 1
	mqttWaitTimeout = 5 * time.Second
	mqttQuiesce     = 250
)

// publishClient is the part of mqtt.Client the publisher needs.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher sends kiosk events to screens subscribed on masjid/<code>/display.
type MQTTPublisher struct {
	client publishClient
	conn   mqtt.Client
}

var _ display.Publisher = (*MQTTPublisher)(nil)

// DisplayTopic is the topic a masjid's screens subscribe to.
func DisplayTopic(code string) string {
	return fmt.Sprintf("masjid/%s/display", code)
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("[mqtt] connected to broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("[mqtt] connection lost")
}

// NewMQTTPublisher connects to brokerURL with auto-reconnect enabled.
func NewMQTTPublisher(brokerURL, clientID string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(mqttWaitTimeout) && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Str("broker", brokerURL).Msg("[mqtt] publisher initialized")
	return &MQTTPublisher{client: client, conn: client}, nil
}

func (p *MQTTPublisher) Publish(code string, ev display.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	// reload events are retained so a screen that reconnects picks them up
	token := p.client.Publish(DisplayTopic(code), mqttQoS, ev.Type == display.EventReload, payload)
	if !token.WaitTimeout(mqttWaitTimeout) {
		return fmt.Errorf("mqtt publish to %s timed out", DisplayTopic(code))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", DisplayTopic(code), err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if p.conn != nil {
		p.conn.Disconnect(mqttQuiesce)
		log.Info().Msg("[mqtt] publisher disconnected")
	}
}
