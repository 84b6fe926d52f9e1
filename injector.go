package sonar

// Injector is the device's own socket on the bus.  The device Run loop
// injects packets through it; replies to injected packets go nowhere.
type Injector struct {
	socket
}

func NewInjector(name string, bus *Bus) *Injector {
	i := &Injector{socket{name, 0, bus}}
	bus.plugin(i)
	return i
}

// Inject the packet onto the bus as if it arrived on the injector socket
func (i *Injector) Inject(pkt *Packet) {
	pkt.bus, pkt.src = i.bus, i
	i.bus.receive(pkt)
}
