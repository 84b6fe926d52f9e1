package sonar

import (
	"fmt"
)

var defaultMaxSockets = 20

// Bus joins a device to its sockets.  Every packet arriving on a socket goes
// to the bus handler, which normally dispatches it to the device; the
// handler can then reply to the sender or broadcast to the other sockets.
type Bus struct {
	name       string
	socketsMu  rwMutex
	sockets    map[Socketer]bool
	socketQ    chan bool
	handlerMu  rwMutex
	handler    func(*Packet)
	connect    func(Socketer)
	disconnect func(Socketer)
}

// NewBus returns a new bus with connect and disconnect callbacks
func NewBus(name string, connect, disconnect func(Socketer)) *Bus {
	if connect == nil {
		connect = func(Socketer) { /* don't notify */ }
	}
	if disconnect == nil {
		disconnect = func(Socketer) { /* don't notify */ }
	}
	return &Bus{
		name:       name,
		sockets:    make(map[Socketer]bool),
		socketQ:    make(chan bool, defaultMaxSockets),
		connect:    connect,
		disconnect: disconnect,
	}
}

// Handle sets the bus packet handler.  It returns false if a handler is
// already set.
func (b *Bus) Handle(handler func(*Packet)) bool {
	if handler == nil {
		panic("handler is nil")
	}
	b.handlerMu.Lock()
	defer b.handlerMu.Unlock()
	if b.handler != nil {
		return false
	}
	b.handler = handler
	return true
}

// Unhandle removes the packet handler; packets are dropped until the next
// Handle
func (b *Bus) Unhandle() {
	b.handlerMu.Lock()
	defer b.handlerMu.Unlock()
	b.handler = nil
}

func (b *Bus) Name() string {
	return b.name
}

// MaxSockets sets the maximum number of socket connections that can be made to
// the bus.  Any socket connection attempts past the maximum will block until
// other sockets drop.
func (b *Bus) MaxSockets(maxSockets int) {
	b.socketQ = make(chan bool, maxSockets)
}

// plugin the socket to the bus
func (b *Bus) plugin(s Socketer) {
	// block here when socketQ is full
	b.socketQ <- true

	b.socketsMu.Lock()
	b.sockets[s] = true
	b.socketsMu.Unlock()

	b.connect(s)
}

// unplug the socket from the bus
func (b *Bus) unplug(s Socketer) {
	b.socketsMu.Lock()
	delete(b.sockets, s)
	b.socketsMu.Unlock()

	b.disconnect(s)

	// release one from the socketQ
	<-b.socketQ
}

// broadcast packet to all broadcast-ready sockets, skipping the source
// socket
func (b *Bus) broadcast(pkt *Packet) {
	b.socketsMu.RLock()
	defer b.socketsMu.RUnlock()
	for sock := range b.sockets {
		if pkt.src != sock && sock.TestFlag(SocketFlagBcast) {
			if err := sock.Send(pkt); err != nil {
				fmt.Printf("Bcast to %s failed: %s\r\n", sock, err)
			}
		}
	}
}

// receive passes pkt to the handler.  The lock isn't held across the call
// so the handler may Reply or Broadcast.
func (b *Bus) receive(pkt *Packet) {
	b.handlerMu.RLock()
	handler := b.handler
	b.handlerMu.RUnlock()
	if handler != nil {
		handler(pkt)
	}
}
