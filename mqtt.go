//go:build !tinygo

package sonar

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttPublishTimeout = 5 * time.Second

// mqttSocket publishes broadcast packets to a topic, retained, and feeds
// messages published to topic/cmd onto the bus
type mqttSocket struct {
	socket
	client mqtt.Client
	topic  string
}

func (m *mqttSocket) Send(pkt *Packet) error {
	token := m.client.Publish(m.topic, 0, true, pkt.message)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("publish to %s timed out", m.topic)
	}
	return token.Error()
}

func (m *mqttSocket) Close() {
	m.client.Disconnect(250)
}

func (m *mqttSocket) command(_ mqtt.Client, msg mqtt.Message) {
	pkt := &Packet{bus: m.bus, src: m, message: msg.Payload()}
	m.bus.receive(pkt)
}

// DialMQTT connects to broker (eg. "tcp://localhost:1883") and publishes
// the Thinger's updates to topic.  The client reconnects on its own; the
// socket is on the bus only while connected.
func (s *Server) DialMQTT(broker, topic string) error {
	m := &mqttSocket{
		socket: socket{"mqtt:" + broker + "/" + topic, SocketFlagBcast, s.bus},
		topic:  topic,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(s.thinger.Id()).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		fmt.Printf("Connecting %s\r\n", m)
		c.Subscribe(topic+"/cmd", 0, m.command)
		s.bus.plugin(m)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		fmt.Printf("Disconnecting %s: %s\r\n", m, err)
		s.bus.unplug(m)
	})

	m.client = mqtt.NewClient(opts)
	token := m.client.Connect()
	// with ConnectRetry the token only completes once connected
	if token.WaitTimeout(time.Second) && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return nil
}
