package sonar

// Socketer is one end of a connection plugged into a Bus: a websocket, an
// MQTT client, or the device's own Injector.
type Socketer interface {
	Send(*Packet) error
	Close()
	String() string
	// TestFlag reports whether all bits of flag are set
	TestFlag(flag uint32) bool
}

const (
	// SocketFlagBcast marks a socket that receives broadcasts.  The
	// Injector doesn't, so a device never hears its own updates twice.
	SocketFlagBcast uint32 = 1 << iota
)

// socket carries what every Socketer shares.  Flags are fixed when the
// socket is made.
type socket struct {
	name  string
	flags uint32
	bus   *Bus
}

func (s *socket) Send(*Packet) error { return nil }
func (s *socket) Close()             {}
func (s *socket) String() string     { return s.name }

func (s *socket) TestFlag(flag uint32) bool {
	return s.flags&flag == flag
}
