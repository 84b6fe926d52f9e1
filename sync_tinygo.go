//go:build tinygo

package sonar

import (
	"sync"
)

// No deadlock detection on microcontrollers
type (
	mutex   = sync.Mutex
	rwMutex = sync.RWMutex
)
