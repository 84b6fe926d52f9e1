package sonar

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
)

// Subscribers maps a message Path to the handler for packets on that Path
type Subscribers map[string]func(*Packet)

// Thinger is a device.  Its Run loop injects packets onto the bus; packets
// arriving on the bus are routed by Path to its Subscribers.
type Thinger interface {
	Subscribers() Subscribers
	Announce() *Packet
	Run(*Injector)
	Id() string
	Model() string
	Name() string
	String() string
}

// ContextRunner is a Thinger whose Run loop stops when ctx is done
type ContextRunner interface {
	RunContext(ctx context.Context, i *Injector)
}

// runContext runs t until ctx is done, or forever if t isn't a
// ContextRunner
func runContext(ctx context.Context, t Thinger, i *Injector) {
	if cr, ok := t.(ContextRunner); ok {
		cr.RunContext(ctx, i)
		return
	}
	t.Run(i)
}

// ThingMsg is embedded in device state so every message carries a Path
type ThingMsg struct {
	Path string
}

type ThingMsgAnnounce struct {
	Path  string
	Id    string
	Model string
	Name  string
}

// Thing is the identity part of a device.  Devices embed Thing and override
// Subscribers and Run.
type Thing struct {
	id    string
	model string
	name  string
	mu    *mutex
}

// NewThing panics if id, model or name isn't a ValidId
func NewThing(id, model, name string) Thing {
	if !ValidId(id) || !ValidId(model) || !ValidId(name) {
		panic("something invalid: id = \"" + id + "\", model = \"" +
			model + "\", name = \"" + name + "\"")
	}
	return Thing{id: id, model: model, name: name, mu: &mutex{}}
}

func (t *Thing) Subscribers() Subscribers { return nil }
func (t *Thing) Run(*Injector)            { select {} }
func (t *Thing) Id() string               { return t.id }
func (t *Thing) Model() string            { return t.model }
func (t *Thing) Name() string             { return t.name }
func (t *Thing) Lock()                    { t.mu.Lock() }
func (t *Thing) Unlock()                  { t.mu.Unlock() }

func (t *Thing) String() string {
	return "[Id: " + t.id + ", Model: " + t.model + ", Name: " + t.name + "]"
}

// ServeFS serves the device's files, typically an embed.FS holding its
// index.html
func (t *Thing) ServeFS(fsys fs.FS, w http.ResponseWriter, r *http.Request) {
	http.FileServer(http.FS(fsys)).ServeHTTP(w, r)
}

// Announce returns the packet a device sends when it dials a hub
func (t *Thing) Announce() *Packet {
	var pkt Packet
	var ann = ThingMsgAnnounce{"announce", t.id, t.model, t.name}
	return pkt.Marshal(&ann)
}

// A valid ID is a non-empty string with only [a-z], [A-Z], [0-9], or
// underscore characters.
func ValidId(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') &&
			(r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') &&
			(r != '_') {
			return false
		}
	}
	return len(s) > 0
}

// dispatch returns a bus handler that routes packets to t's Subscribers
func dispatch(t Thinger) func(*Packet) {
	subs := t.Subscribers()
	return func(pkt *Packet) {
		path := pkt.Path()
		if handler, ok := subs[path]; ok {
			handler(pkt)
			return
		}
		fmt.Printf("No subscriber for %q on %s\r\n", path, t)
	}
}
