package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/detgeo/pkg/volume"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	det    *volume.Detector
	errors []EvalError
	err    error
}

// waitWithTimeout returns the result delivered on ch unless limit passes
// first. A result whose generation is no longer current is dropped; this
// also covers a runaway evaluation that finishes after its timeout.
func waitWithTimeout(ch <-chan evalResult, gen uint64, limit time.Duration, mu *sync.Mutex, current *uint64) (*volume.Detector, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		latest := *current
		mu.Unlock()
		if gen != latest {
			return nil, nil, fmt.Errorf("evaluation %d superseded by %d", gen, latest)
		}
		return res.det, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation %d timed out after %s", gen, limit)
	}
}
