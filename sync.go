//go:build !tinygo

package sonar

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Framework locks report a lock held past SONAR_DEADLOCK_TIMEOUT, or a
// lock-order inversion, and exit.  A timeout of 0 turns detection off.
type (
	mutex   = deadlock.Mutex
	rwMutex = deadlock.RWMutex
)

func init() {
	configureLocks(GetEnvDuration("SONAR_DEADLOCK_TIMEOUT", deadlock.Opts.DeadlockTimeout))
}

func configureLocks(timeout time.Duration) {
	deadlock.Opts.DeadlockTimeout = timeout
	deadlock.Opts.Disable = timeout <= 0
}
