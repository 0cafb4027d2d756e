package feed

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	qos               = 1
	disconnectQuiesce = 250 // ms
)

// PahoConfig configures the Paho transport.
type PahoConfig struct {
	Broker         string // e.g. ssl://io.adafruit.com:8883
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// Paho is a Transport over the Eclipse Paho MQTT client. Reconnection is
// left to the caller.
type Paho struct {
	client  mqtt.Client
	timeout time.Duration
	lost    func(error)
}

// NewPaho returns an unconnected transport.
func NewPaho(cfg PahoConfig) *Paho {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	p := &Paho{timeout: cfg.ConnectTimeout}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetCleanSession(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			if p.lost != nil {
				p.lost(err)
			}
		})
	p.client = mqtt.NewClient(opts)
	return p
}

func (p *Paho) Connect() error {
	return p.wait(p.client.Connect())
}

func (p *Paho) Subscribe(topic string, handle func(Message)) error {
	return p.wait(p.client.Subscribe(topic, qos, func(_ mqtt.Client, m mqtt.Message) {
		handle(Message{Topic: m.Topic(), Payload: string(m.Payload())})
	}))
}

func (p *Paho) Publish(topic, payload string) error {
	return p.wait(p.client.Publish(topic, qos, false, payload))
}

func (p *Paho) IsConnected() bool { return p.client.IsConnected() }

func (p *Paho) Disconnect() { p.client.Disconnect(disconnectQuiesce) }

func (p *Paho) OnConnectionLost(f func(error)) { p.lost = f }

func (p *Paho) wait(t mqtt.Token) error {
	if !t.WaitTimeout(p.timeout) {
		return fmt.Errorf("timed out after %v", p.timeout)
	}
	return t.Error()
}
