// Package ranger is a sonar device reporting the distance measured by an
// HC-SR04 ultrasonic sensor.
package ranger

import (
	"context"
	"embed"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/merliot/sonar"
	"github.com/merliot/sonar/hcsr04"
)

//go:embed index.html
var fs embed.FS

const DefaultPeriod = time.Second

// Sensor is satisfied by *hcsr04.Device
type Sensor interface {
	Measure(ctx context.Context, temperature float64) (float64, error)
	Config() hcsr04.Config
}

type Ranger struct {
	sonar.Thing
	sonar.ThingMsg
	Distance        float64
	Unit            string
	Temperature     float64
	TemperatureUnit string
	Fault           string
	Period          time.Duration
	sensor          Sensor
	injector        *sonar.Injector
}

type msgTemperature struct {
	sonar.ThingMsg
	Temperature float64
}

// New returns a Ranger measuring with sensor.  The ambient temperature starts
// at 20C (68F); set Temperature before Run or send a "temperature" message.
func New(id, model, name string, sensor Sensor) *Ranger {
	cfg := sensor.Config()
	r := &Ranger{
		Thing:           sonar.NewThing(id, model, name),
		Unit:            cfg.DistanceUnit.String(),
		TemperatureUnit: cfg.TemperatureUnit.String(),
		Temperature:     20,
		Period:          DefaultPeriod,
		sensor:          sensor,
	}
	if cfg.TemperatureUnit == hcsr04.Fahrenheit {
		r.Temperature = 68
	}
	return r
}

// marshal the Ranger into pkt with path.  The units always come from the
// sensor's Config.
func (r *Ranger) marshal(pkt *sonar.Packet, path string) *sonar.Packet {
	cfg := r.sensor.Config()
	r.Lock()
	defer r.Unlock()
	r.Path = path
	r.Unit = cfg.DistanceUnit.String()
	r.TemperatureUnit = cfg.TemperatureUnit.String()
	return pkt.Marshal(r)
}

func (r *Ranger) getState(pkt *sonar.Packet) {
	r.marshal(pkt, "state").Reply()
}

// update broadcasts the Ranger's own readings.  Distance and Fault only
// come from the sensor, so updates from any other socket are dropped.
func (r *Ranger) update(pkt *sonar.Packet) {
	r.Lock()
	own := r.injector != nil && pkt.Src() == r.injector
	r.Unlock()
	if !own {
		fmt.Printf("Ranger %s: dropping update from %v\r\n", r.Name(), pkt.Src())
		return
	}
	pkt.Broadcast()
}

func (r *Ranger) temperature(pkt *sonar.Packet) {
	var msg msgTemperature
	pkt.Unmarshal(&msg)
	r.Lock()
	r.Temperature = msg.Temperature
	r.Unlock()
	pkt.Broadcast()
}

func (r *Ranger) Subscribers() sonar.Subscribers {
	return sonar.Subscribers{
		"get/state":   r.getState,
		"attached":    r.getState,
		"update":      r.update,
		"temperature": r.temperature,
	}
}

func (r *Ranger) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.ServeFS(fs, w, req)
}

// sample takes one measurement.  The distance is kept to hundredths of a
// unit.  It returns true if the distance or fault changed.
func (r *Ranger) sample(ctx context.Context) bool {
	r.Lock()
	temp := r.Temperature
	r.Unlock()

	dist, err := r.sensor.Measure(ctx, temp)
	if ctx.Err() != nil {
		return false
	}

	r.Lock()
	defer r.Unlock()

	if err != nil {
		fault := err.Error()
		if fault == r.Fault {
			return false
		}
		fmt.Printf("Ranger %s fault: %s\r\n", r.Name(), fault)
		r.Fault = fault
		return true
	}

	dist = math.Round(dist*100) / 100
	changed := r.Fault != "" || dist != r.Distance
	if r.Fault != "" {
		fmt.Printf("Ranger %s recovered\r\n", r.Name())
	}
	r.Fault = ""
	r.Distance = dist
	return changed
}

func (r *Ranger) sendUpdate() {
	var pkt sonar.Packet
	r.injector.Inject(r.marshal(&pkt, "update"))
}

// RunContext measures every Period until ctx is done, injecting an "update"
// whenever the reading changes.  A failed measurement is retried on the next
// period.
func (r *Ranger) RunContext(ctx context.Context, i *sonar.Injector) {
	r.Lock()
	r.injector = i
	r.Unlock()

	period := r.Period
	if period <= 0 {
		period = DefaultPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		if r.sample(ctx) {
			r.sendUpdate()
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Ranger) Run(i *sonar.Injector) {
	r.RunContext(context.Background(), i)
}
