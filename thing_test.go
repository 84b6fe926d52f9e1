package sonar

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestInvalidThing(t *testing.T) {
	c := qt.New(t)
	c.Assert(func() { NewThing("", "foo", "bar") }, qt.PanicMatches, "something invalid.*")
	c.Assert(func() { NewThing("foo", "", "bar") }, qt.PanicMatches, "something invalid.*")
	c.Assert(func() { NewThing("foo", "bar", "") }, qt.PanicMatches, "something invalid.*")
	c.Assert(func() { NewThing("foo", "bar", "has space") }, qt.PanicMatches, "something invalid.*")
}

func TestValidId(t *testing.T) {
	c := qt.New(t)
	c.Assert(ValidId("ranger_01"), qt.IsTrue)
	c.Assert(ValidId("Ranger"), qt.IsTrue)
	c.Assert(ValidId(""), qt.IsFalse)
	c.Assert(ValidId("ranger-01"), qt.IsFalse)
	c.Assert(ValidId("ränger"), qt.IsFalse)
}

func TestAnnounce(t *testing.T) {
	c := qt.New(t)
	thing := NewThing("id1", "model1", "name1")
	c.Assert(thing.String(), qt.Equals, "[Id: id1, Model: model1, Name: name1]")

	var ann ThingMsgAnnounce
	pkt := thing.Announce()
	c.Assert(pkt.Path(), qt.Equals, "announce")
	pkt.Unmarshal(&ann)
	c.Assert(ann, qt.Equals, ThingMsgAnnounce{"announce", "id1", "model1", "name1"})
}

type counter struct {
	Thing
	ThingMsg
	Count int
	seen  []string
}

func newCounter() *counter {
	return &counter{Thing: NewThing("id", "counter", "name")}
}

func (c *counter) getState(pkt *Packet) {
	c.seen = append(c.seen, "get/state")
	c.Path = "state"
	pkt.Marshal(c).Reply()
}

func (c *counter) update(pkt *Packet) {
	c.seen = append(c.seen, "update")
	pkt.Unmarshal(c).Broadcast()
}

func (c *counter) Subscribers() Subscribers {
	return Subscribers{
		"get/state": c.getState,
		"attached":  c.getState,
		"update":    c.update,
	}
}

func (c *counter) Run(i *Injector) {
	var pkt Packet
	for n := 1; n <= 3; n++ {
		c.Path = "update"
		c.Count = n
		i.Inject(pkt.Marshal(c))
	}
}

func TestDispatch(t *testing.T) {
	c := qt.New(t)
	cnt := newCounter()
	handler := dispatch(cnt)
	bus := NewBus("test bus", nil, nil)
	sock := &testSocket{socket: socket{"test socket", 0, bus}}

	handler((&Packet{bus: bus, src: sock}).Marshal(&ThingMsg{Path: "get/state"}))
	handler((&Packet{bus: bus, src: sock}).Marshal(&ThingMsg{Path: "unknown"}))
	c.Assert(cnt.seen, qt.DeepEquals, []string{"get/state"})
	c.Assert(sock.sent, qt.HasLen, 1)
	c.Assert(sock.sent[0].Path(), qt.Equals, "state")
}

func TestRunner(t *testing.T) {
	c := qt.New(t)
	cnt := newCounter()
	NewRunner(cnt).Run()
	c.Assert(cnt.seen, qt.DeepEquals, []string{"update", "update", "update"})
	c.Assert(cnt.Count, qt.Equals, 3)
}

func TestPacketPath(t *testing.T) {
	c := qt.New(t)
	var pkt Packet
	c.Assert(pkt.Path(), qt.Equals, "")
	pkt.message = []byte("not json")
	c.Assert(pkt.Path(), qt.Equals, "")
	pkt.Marshal(struct {
		ThingMsg
		Distance float64
	}{ThingMsg{"update"}, 12.5})
	c.Assert(pkt.Path(), qt.Equals, "update")
	c.Assert(pkt.String(), qt.Equals, `{"Path":"update","Distance":12.5}`)
}

type stoppable struct {
	*counter
	stopped bool
}

func (s *stoppable) RunContext(ctx context.Context, i *Injector) {
	<-ctx.Done()
	s.stopped = true
}

func TestRunnerContext(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &stoppable{counter: newCounter()}
	NewRunner(s).RunContext(ctx)
	c.Assert(s.stopped, qt.IsTrue)
	c.Assert(s.Count, qt.Equals, 0)

	// without RunContext, Run is used
	cnt := newCounter()
	NewRunner(cnt).RunContext(ctx)
	c.Assert(cnt.Count, qt.Equals, 3)
}
