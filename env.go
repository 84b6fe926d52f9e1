package sonar

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetEnv(name string, defaultValue string) string {
	value, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	return value
}

// GetEnvFloat returns defaultValue if name is unset or not a number
func GetEnvFloat(name string, defaultValue float64) float64 {
	value, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		fmt.Printf("Ignoring %s=%q: %s\r\n", name, value, err)
		return defaultValue
	}
	return f
}

// GetEnvDuration returns defaultValue if name is unset or not a
// time.Duration
func GetEnvDuration(name string, defaultValue time.Duration) time.Duration {
	value, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		fmt.Printf("Ignoring %s=%q: %s\r\n", name, value, err)
		return defaultValue
	}
	return d
}

// GetEnvBool returns defaultValue if name is unset or not a bool
func GetEnvBool(name string, defaultValue bool) bool {
	value, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		fmt.Printf("Ignoring %s=%q: %s\r\n", name, value, err)
		return defaultValue
	}
	return b
}
