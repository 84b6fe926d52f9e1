package sonar

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/websocket"
)

// webSocket wraps a websocket.Conn and implements the Socketer interface
type webSocket struct {
	socket
	mu           mutex
	url          *url.URL
	conn         *websocket.Conn
	closing      bool
	pingPeriod   time.Duration
	pingSent     time.Time
	pongRecieved bool
}

const pingPeriodMin = time.Second

var (
	pingMsg = []byte("ping")
	pongMsg = []byte("pong")
)

func newWebSocket(url *url.URL, remoteAddr string, bus *Bus) *webSocket {
	w := &webSocket{}

	var name string
	if remoteAddr == "" {
		name = "ws:localhost::" + url.String()
	} else {
		name = "ws:" + url.String() + "::" + remoteAddr
	}

	w.socket = socket{name, SocketFlagBcast, bus}
	w.url = url

	/* param ping-period */
	period, _ := strconv.Atoi(url.Query().Get("ping-period"))
	w.pingPeriod = time.Duration(period) * time.Second
	if w.pingPeriod < pingPeriodMin {
		w.pingPeriod = pingPeriodMin
	}

	return w
}

func (w *webSocket) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closing = true
}

func (w *webSocket) isClosing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closing
}

func (w *webSocket) Send(pkt *Packet) error {
	return w.send(pkt.message)
}

func (w *webSocket) send(msg []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return errors.New("send on nil connection")
	}
	return websocket.Message.Send(w.conn, string(msg))
}

func (w *webSocket) newConfig(user, passwd string) (*websocket.Config, error) {
	url := w.url.String()
	origin := "http://localhost/"

	config, err := websocket.NewConfig(url, origin)
	if err != nil {
		return nil, err
	}

	if user != "" {
		// Set the basic auth header for the request
		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(user, passwd)
		config.Header = req.Header
	}

	return config, nil
}

// announced sends the announcement and waits a second for any reply, which
// the hub sends as its ack
func (w *webSocket) announced(announce *Packet) bool {
	var pkt = &Packet{bus: w.bus, src: w}

	if err := w.Send(announce); err != nil {
		fmt.Printf("Error sending announcement: %s\r\n", err.Error())
		return false
	}

	w.conn.SetReadDeadline(time.Now().Add(time.Second))
	err := websocket.Message.Receive(w.conn, &pkt.message)
	if err == nil {
		w.bus.receive(pkt)
		return true
	}

	return false
}

// Dial the hub, forever.  Each connection is announced and served until it
// drops, then redialed a second later.
func (w *webSocket) Dial(user, passwd string, announce *Packet) {

	cfg, err := w.newConfig(user, passwd)
	if err != nil {
		fmt.Printf("Error configuring websocket: %s\r\n", err.Error())
		return
	}

	for !w.isClosing() {
		conn, err := websocket.DialConfig(cfg)
		if err == nil {
			w.connect(conn)
			if w.announced(announce) {
				w.serveClient()
			}
			w.disconnect()
			conn.Close()
		} else {
			fmt.Printf("Dial error %s: %s\r\n", w, err.Error())
		}

		// try again in a second
		time.Sleep(time.Second)
	}
}

func (w *webSocket) connect(conn *websocket.Conn) {
	fmt.Printf("Connecting %s\r\n", w)
	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	w.bus.plugin(w)
}

func (w *webSocket) disconnect() {
	fmt.Printf("Disconnecting %s\r\n", w)
	w.bus.unplug(w)
	w.mu.Lock()
	w.conn = nil
	w.mu.Unlock()
}

func (w *webSocket) serve(conn *websocket.Conn) {
	w.connect(conn)
	w.serveServer()
	w.disconnect()
}

func (w *webSocket) ping() {
	w.pongRecieved = false
	w.pingSent = time.Now()
	w.send(pingMsg)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (w *webSocket) serveClient() {

	w.ping()

	for !w.isClosing() {
		var pkt = &Packet{bus: w.bus, src: w}

		w.conn.SetReadDeadline(time.Now().Add(time.Second))
		err := websocket.Message.Receive(w.conn, &pkt.message)
		switch {
		case err == nil && bytes.Equal(pkt.message, pongMsg):
			w.pongRecieved = true
		case err == nil:
			w.bus.receive(pkt)
		case isTimeout(err):
			// allow timeout errors
		default:
			fmt.Printf("Disconnecting %s: %s\r\n", w, err.Error())
			return
		}

		if time.Now().After(w.pingSent.Add(w.pingPeriod)) {
			if !w.pongRecieved {
				fmt.Printf("No pong; disconnecting %s\r\n", w)
				return
			}
			w.ping()
		}
	}
}

func (w *webSocket) serveServer() {

	pingCheck := w.pingPeriod + (4 * time.Second)
	lastRecv := time.Now()

	for !w.isClosing() {
		var pkt = &Packet{bus: w.bus, src: w}

		w.conn.SetReadDeadline(time.Now().Add(time.Second))
		err := websocket.Message.Receive(w.conn, &pkt.message)
		if err == nil {
			lastRecv = time.Now()
			if bytes.Equal(pkt.message, pingMsg) {
				if err := w.send(pongMsg); err != nil {
					fmt.Printf("Error sending pong, disconnecting %s: %s\r\n", w, err.Error())
					return
				}
				continue
			}
			w.bus.receive(pkt)
			continue
		}

		if isTimeout(err) {
			if time.Since(lastRecv) > pingCheck {
				fmt.Printf("Timeout, disconnecting %s %s\r\n", w, time.Since(lastRecv))
				return
			}
			continue
		}

		fmt.Printf("Disconnecting %s: %s\r\n", w, err.Error())
		return
	}
}
