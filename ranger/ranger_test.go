package ranger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"golang.org/x/net/websocket"

	"github.com/merliot/sonar"
	"github.com/merliot/sonar/hcsr04"
)

type reading struct {
	dist float64
	err  error
}

type fakeSensor struct {
	config   hcsr04.Config
	readings []reading
	temps    []float64
	cancel   context.CancelFunc
}

func (f *fakeSensor) Config() hcsr04.Config { return f.config }

func (f *fakeSensor) Measure(ctx context.Context, temperature float64) (float64, error) {
	f.temps = append(f.temps, temperature)
	if len(f.readings) == 0 {
		f.cancel()
		return 0, ctx.Err()
	}
	r := f.readings[0]
	f.readings = f.readings[1:]
	return r.dist, r.err
}

type state struct {
	Path            string
	Distance        float64
	Unit            string
	Temperature     float64
	TemperatureUnit string
	Fault           string
	Period          time.Duration
}

func decode(c *qt.C, b []byte) state {
	var s state
	c.Assert(json.Unmarshal(b, &s), qt.IsNil)
	return s
}

func TestNew(t *testing.T) {
	c := qt.New(t)
	r := New("r1", "ranger", "garage", &fakeSensor{})
	c.Assert(r.Unit, qt.Equals, "cm")
	c.Assert(r.TemperatureUnit, qt.Equals, "C")
	c.Assert(r.Temperature, qt.Equals, 20.0)
	c.Assert(r.Period, qt.Equals, DefaultPeriod)

	r = New("r1", "ranger", "garage", &fakeSensor{config: hcsr04.Config{
		DistanceUnit:    hcsr04.Inches,
		TemperatureUnit: hcsr04.Fahrenheit,
	}})
	c.Assert(r.Unit, qt.Equals, "in")
	c.Assert(r.TemperatureUnit, qt.Equals, "F")
	c.Assert(r.Temperature, qt.Equals, 68.0)
}

func TestRunUpdates(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errNoEcho := errors.New("no echo")
	sensor := &fakeSensor{
		cancel: cancel,
		readings: []reading{
			{dist: 10.004},
			{dist: 10.001},
			{err: errNoEcho},
			{err: errNoEcho},
			{dist: 12.3},
			{dist: 12.3},
		},
	}
	r := New("r1", "ranger", "garage", sensor)
	r.Period = time.Millisecond

	var got []state
	bus := sonar.NewBus("test bus", nil, nil)
	bus.Handle(func(pkt *sonar.Packet) { got = append(got, decode(c, pkt.Bytes())) })

	r.RunContext(ctx, sonar.NewInjector("test injector", bus))

	c.Assert(got, qt.HasLen, 3)
	c.Assert(got[0].Path, qt.Equals, "update")
	c.Assert(got[0].Distance, qt.Equals, 10.0)
	c.Assert(got[0].Fault, qt.Equals, "")
	c.Assert(got[1].Distance, qt.Equals, 10.0)
	c.Assert(got[1].Fault, qt.Equals, "no echo")
	c.Assert(got[2].Distance, qt.Equals, 12.3)
	c.Assert(got[2].Fault, qt.Equals, "")
	c.Assert(sensor.temps, qt.HasLen, 7)
}

func TestCancelIsNotAFault(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New("r1", "ranger", "garage", &fakeSensor{cancel: cancel})
	c.Assert(r.sample(ctx), qt.IsFalse)
	c.Assert(r.Fault, qt.Equals, "")
}

func TestTemperature(t *testing.T) {
	c := qt.New(t)
	sensor := &fakeSensor{readings: []reading{{dist: 50}}}
	r := New("r1", "ranger", "garage", sensor)

	var pkt sonar.Packet
	r.Subscribers()["temperature"](pkt.Marshal(&msgTemperature{
		ThingMsg:    sonar.ThingMsg{Path: "temperature"},
		Temperature: -5.5,
	}))
	c.Assert(r.Temperature, qt.Equals, -5.5)

	c.Assert(r.sample(context.Background()), qt.IsTrue)
	c.Assert(sensor.temps, qt.DeepEquals, []float64{-5.5})
}

func TestGetState(t *testing.T) {
	c := qt.New(t)
	r := New("r1", "ranger", "garage", &fakeSensor{config: hcsr04.Config{
		DistanceUnit:    hcsr04.Inches,
		TemperatureUnit: hcsr04.Fahrenheit,
	}})
	r.Distance = 42.5

	for _, path := range []string{"get/state", "attached"} {
		var pkt sonar.Packet
		r.Subscribers()[path](pkt.Marshal(&sonar.ThingMsg{Path: path}))
		c.Assert(decode(c, pkt.Bytes()), qt.Equals, state{
			Path:            "state",
			Distance:        42.5,
			Unit:            "in",
			Temperature:     68,
			TemperatureUnit: "F",
			Period:          DefaultPeriod,
		}, qt.Commentf("path %s", path))
	}
}

func TestServeHTTP(t *testing.T) {
	c := qt.New(t)
	r := New("r1", "ranger", "garage", &fakeSensor{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Body.String(), qt.Contains, "<title>Ranger</title>")
}

func TestUpdateFromElsewhereDropped(t *testing.T) {
	c := qt.New(t)
	r := New("r1", "ranger", "garage", &fakeSensor{})
	r.Distance = 42.5

	var pkt sonar.Packet
	r.Subscribers()["update"](pkt.Marshal(&state{
		Path:            "update",
		Distance:        999,
		Unit:            "in",
		TemperatureUnit: "F",
		Fault:           "bogus",
		Period:          1,
	}))
	c.Assert(r.Distance, qt.Equals, 42.5)
	c.Assert(r.Unit, qt.Equals, "cm")
	c.Assert(r.TemperatureUnit, qt.Equals, "C")
	c.Assert(r.Fault, qt.Equals, "")
	c.Assert(r.Period, qt.Equals, DefaultPeriod)
}

// The units reported follow the sensor even if the fields were changed.
func TestStateUnitsFromSensor(t *testing.T) {
	c := qt.New(t)
	r := New("r1", "ranger", "garage", &fakeSensor{})
	r.Unit, r.TemperatureUnit = "in", "F"

	var pkt sonar.Packet
	r.Subscribers()["get/state"](pkt.Marshal(&sonar.ThingMsg{Path: "get/state"}))
	s := decode(c, pkt.Bytes())
	c.Assert(s.Unit, qt.Equals, "cm")
	c.Assert(s.TemperatureUnit, qt.Equals, "C")
}

func receive(c *qt.C, conn *websocket.Conn) state {
	var msg []byte
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	c.Assert(websocket.Message.Receive(conn, &msg), qt.IsNil)
	return decode(c, msg)
}

func TestWebSocketClient(t *testing.T) {
	c := qt.New(t)
	sensor := &fakeSensor{readings: []reading{{dist: 33.3}}}
	r := New("r1", "ranger", "garage", sensor)
	server := sonar.NewServer(r)
	ts := httptest.NewServer(server.Handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/"
	conn, err := websocket.Dial(url, "", "http://localhost/")
	c.Assert(err, qt.IsNil)
	defer conn.Close()
	c.Assert(receive(c, conn).Path, qt.Equals, "state")

	// a client can't rewrite the reading or the units
	forged := `{"Path":"update","Unit":"in","Period":1,"Distance":999}`
	c.Assert(websocket.Message.Send(conn, forged), qt.IsNil)
	c.Assert(websocket.Message.Send(conn, `{"Path":"get/state"}`), qt.IsNil)
	got := receive(c, conn)
	c.Assert(got.Path, qt.Equals, "state")
	c.Assert(got.Unit, qt.Equals, "cm")
	c.Assert(got.Distance, qt.Equals, 0.0)

	// the device's own reading reaches the client
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sensor.cancel = cancel
	r.Period = time.Millisecond
	go server.RunContext(ctx)

	got = receive(c, conn)
	c.Assert(got.Path, qt.Equals, "update")
	c.Assert(got.Distance, qt.Equals, 33.3)
	c.Assert(got.Unit, qt.Equals, "cm")
}
