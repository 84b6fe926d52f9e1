package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/shlex"
	"github.com/merliot/sonar"
	"github.com/merliot/sonar/hcsr04"
	"github.com/merliot/sonar/hcsr04/rpiopin"
	"github.com/merliot/sonar/ranger"
	"github.com/merliot/sonar/ranger/rpi"
	"github.com/stianeikeland/go-rpio/v4"
)

type config struct {
	id, name    string
	backend     string
	chip        string
	trigger     string
	echo        string
	sensor      hcsr04.Config
	temperature float64
	period      time.Duration
	addr        string
	user        string
	passwd      string
	hub         string
	hubUser     string
	hubPasswd   string
	broker      string
	topic       string
	tlsHost     string
	certCache   string
	headless    bool
}

// parse reads SONAR_* environment variables, then flags from SONAR_ARGS
// and args.  Flags win.
func parse(args []string) (*config, error) {
	var cfg config
	var inches, fahrenheit, linear bool

	fs := flag.NewFlagSet("ranger", flag.ContinueOnError)
	fs.StringVar(&cfg.id, "id", sonar.GetEnv("SONAR_ID", "ranger01"), "device id")
	fs.StringVar(&cfg.name, "name", sonar.GetEnv("SONAR_NAME", "ranger"), "device name")
	fs.StringVar(&cfg.backend, "backend", sonar.GetEnv("SONAR_BACKEND", "periph"), "pin backend: periph, gpiod or rpio")
	fs.StringVar(&cfg.chip, "chip", sonar.GetEnv("SONAR_CHIP", "gpiochip0"), "gpiod chip")
	fs.StringVar(&cfg.trigger, "trigger", sonar.GetEnv("SONAR_TRIGGER", rpi.DefaultTrigger), "trigger pin")
	fs.StringVar(&cfg.echo, "echo", sonar.GetEnv("SONAR_ECHO", rpi.DefaultEcho), "echo pin")
	fs.BoolVar(&inches, "inches", sonar.GetEnvBool("SONAR_INCHES", false), "report inches")
	fs.BoolVar(&fahrenheit, "fahrenheit", sonar.GetEnvBool("SONAR_FAHRENHEIT", false), "temperatures in Fahrenheit")
	fs.BoolVar(&linear, "linear", sonar.GetEnvBool("SONAR_LINEAR", false), "linear speed of sound model")
	fs.DurationVar(&cfg.sensor.RiseTimeout, "rise-timeout", sonar.GetEnvDuration("SONAR_RISE_TIMEOUT", hcsr04.DefaultEdgeTimeout), "echo rise timeout")
	fs.DurationVar(&cfg.sensor.FallTimeout, "fall-timeout", sonar.GetEnvDuration("SONAR_FALL_TIMEOUT", hcsr04.DefaultEdgeTimeout), "echo fall timeout")
	fs.Float64Var(&cfg.temperature, "temperature", sonar.GetEnvFloat("SONAR_TEMPERATURE", math.NaN()), "ambient temperature, NaN for the unit's room temperature")
	fs.DurationVar(&cfg.period, "period", sonar.GetEnvDuration("SONAR_PERIOD", ranger.DefaultPeriod), "measurement period")
	fs.StringVar(&cfg.addr, "addr", sonar.GetEnv("SONAR_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.user, "user", sonar.GetEnv("SONAR_USER", ""), "basic auth user")
	fs.StringVar(&cfg.passwd, "passwd", sonar.GetEnv("SONAR_PASSWD", ""), "basic auth password")
	fs.StringVar(&cfg.hub, "hub", sonar.GetEnv("SONAR_HUB", ""), "hub websocket URL")
	fs.StringVar(&cfg.hubUser, "hub-user", sonar.GetEnv("SONAR_HUB_USER", ""), "hub user")
	fs.StringVar(&cfg.hubPasswd, "hub-passwd", sonar.GetEnv("SONAR_HUB_PASSWD", ""), "hub password")
	fs.StringVar(&cfg.broker, "mqtt", sonar.GetEnv("SONAR_MQTT_BROKER", ""), "MQTT broker, eg. tcp://localhost:1883")
	fs.StringVar(&cfg.topic, "topic", sonar.GetEnv("SONAR_MQTT_TOPIC", ""), "MQTT topic, default sonar/<id>")
	fs.StringVar(&cfg.tlsHost, "tls-host", sonar.GetEnv("SONAR_TLS_HOST", ""), "serve HTTPS for host")
	fs.StringVar(&cfg.certCache, "cert-cache", sonar.GetEnv("SONAR_CERT_CACHE", ""), "directory caching TLS certificates")
	fs.BoolVar(&cfg.headless, "headless", sonar.GetEnvBool("SONAR_HEADLESS", false), "run without HTTP")

	extra, err := shlex.Split(sonar.GetEnv("SONAR_ARGS", ""))
	if err != nil {
		return nil, fmt.Errorf("SONAR_ARGS: %w", err)
	}
	if err := fs.Parse(append(extra, args...)); err != nil {
		return nil, err
	}

	if inches {
		cfg.sensor.DistanceUnit = hcsr04.Inches
	}
	if fahrenheit {
		cfg.sensor.TemperatureUnit = hcsr04.Fahrenheit
	}
	if linear {
		cfg.sensor.SpeedModel = hcsr04.Linear
	}
	if cfg.topic == "" {
		cfg.topic = "sonar/" + cfg.id
	}
	return &cfg, nil
}

// bcm returns the BCM number of a pin named "GPIO23" or "23"
func bcm(name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "GPIO"))
	if err != nil {
		return 0, fmt.Errorf("pin %q: %w", name, err)
	}
	return n, nil
}

func newRanger(cfg *config) (*ranger.Ranger, error) {
	if cfg.backend == "periph" {
		return rpi.New(cfg.id, "ranger", cfg.name, cfg.trigger, cfg.echo, cfg.sensor)
	}

	trig, err := bcm(cfg.trigger)
	if err != nil {
		return nil, err
	}
	echo, err := bcm(cfg.echo)
	if err != nil {
		return nil, err
	}

	var t hcsr04.Trigger
	var e hcsr04.Echo

	switch cfg.backend {
	case "gpiod":
		t, e, err = openGpiod(cfg.chip, trig, echo)
		if err != nil {
			return nil, err
		}
	case "rpio":
		if err := rpio.Open(); err != nil {
			return nil, fmt.Errorf("rpio: %w", err)
		}
		t, e = rpiopin.NewTrigger(trig), rpiopin.NewEcho(echo)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.backend)
	}

	return ranger.New(cfg.id, "ranger", cfg.name, hcsr04.New(t, e, cfg.sensor)), nil
}

func main() {
	cfg, err := parse(os.Args[1:])
	if err != nil {
		fmt.Printf("%s\r\n", err)
		os.Exit(2)
	}

	r, err := newRanger(cfg)
	if err != nil {
		fmt.Printf("%s\r\n", err)
		os.Exit(1)
	}
	r.Period = cfg.period
	if !math.IsNaN(cfg.temperature) {
		r.Temperature = cfg.temperature
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.headless {
		sonar.NewRunner(r).RunContext(ctx)
		return
	}

	server := sonar.NewServer(r)
	server.BasicAuth(cfg.user, cfg.passwd)
	server.Addr = cfg.addr

	if cfg.hub != "" {
		if err := server.DialWebSocket(cfg.hubUser, cfg.hubPasswd, cfg.hub); err != nil {
			fmt.Printf("%s\r\n", err)
			os.Exit(1)
		}
	}
	if cfg.broker != "" {
		if err := server.DialMQTT(cfg.broker, cfg.topic); err != nil {
			fmt.Printf("%s\r\n", err)
			os.Exit(1)
		}
	}

	go func() {
		var err error
		if cfg.tlsHost != "" {
			err = server.ServeTLS(cfg.tlsHost, cfg.certCache)
		} else {
			err = server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("Server stopped: %s\r\n", err)
			os.Exit(1)
		}
	}()

	server.RunContext(ctx)

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdown)
}
