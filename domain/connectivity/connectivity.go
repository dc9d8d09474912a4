// Package connectivity provides the connectivity-change event and the
// transition tracker that deduplicates repeated observations.
package connectivity

import "sync"

// ContractChanged is the contract identity of the Changed event.
const ContractChanged = "Connectivity.Changed"

// Changed is broadcast exactly once per observed transition.
type Changed struct {
	Connected bool
}

// Contract implements dispatch.Request.
func (Changed) Contract() string { return ContractChanged }

// Tracker records the last observed connectivity state and reports only
// real transitions. Multiple concurrent observers may feed it.
type Tracker struct {
	mu        sync.Mutex
	observed  bool
	connected bool
}

// Observe records a state observation. It returns true when the state
// differs from the previous observation; repeated identical states return
// false. The very first observation always counts as a transition.
func (t *Tracker) Observe(connected bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.observed && t.connected == connected {
		return false
	}
	t.observed = true
	t.connected = connected
	return true
}

// Connected returns the last observed state. Before any observation it
// reports true, so dispatch is not queued by default.
func (t *Tracker) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.observed {
		return true
	}
	return t.connected
}
