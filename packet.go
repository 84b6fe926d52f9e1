package sonar

import (
	"encoding/json"
	"fmt"
)

// Packet is sent and received on a bus via a socket.  The message is JSON
// with a top-level Path.
type Packet struct {
	bus     *Bus
	src     Socketer
	message []byte
}

// Bytes returns the packet message
func (p *Packet) Bytes() []byte {
	return p.message
}

func (p *Packet) String() string {
	return string(p.message)
}

// Path returns the message Path, or "" if the message has none
func (p *Packet) Path() string {
	var msg ThingMsg
	json.Unmarshal(p.message, &msg)
	return msg.Path
}

// Src returns the socket the packet arrived on
func (p *Packet) Src() Socketer {
	return p.src
}

// Reply sends the packet back to sender
func (p *Packet) Reply() *Packet {
	if p.src == nil {
		fmt.Printf("Can't reply to sender: source is nil\r\n")
		return p
	}
	if err := p.src.Send(p); err != nil {
		fmt.Printf("Reply to %s failed: %s\r\n", p.src, err)
	}
	return p
}

// Broadcast the packet to all other matching-tagged sockets on the bus.  The
// source socket is excluded.
func (p *Packet) Broadcast() *Packet {
	if p.bus == nil {
		fmt.Printf("Can't broadcast packet: bus is nil\r\n")
		return p
	}
	p.bus.broadcast(p)
	return p
}

// Unmarshal the packet message as JSON into v
func (p *Packet) Unmarshal(v any) *Packet {
	if err := json.Unmarshal(p.message, v); err != nil {
		fmt.Printf("JSON unmarshal error %s\r\n", err.Error())
	}
	return p
}

// Marshal the packet message as JSON from v
func (p *Packet) Marshal(v any) *Packet {
	var err error
	p.message, err = json.Marshal(v)
	if err != nil {
		fmt.Printf("JSON marshal error %s\r\n", err.Error())
	}
	return p
}
