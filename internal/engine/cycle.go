package engine

import "sync"

// cycleDetector remembers which (sync, bindings) pairs already fired
// within each flow. Firing claims in the store are keyed by record id,
// so a feedback loop that mints fresh records each round passes them;
// this guard is what actually breaks the loop.
type cycleDetector struct {
	mu   sync.Mutex
	seen map[string]map[string]bool // flow -> sync:bindingHash
}

func newCycleDetector() *cycleDetector {
	return &cycleDetector{seen: map[string]map[string]bool{}}
}

// check reports whether the key already fired in this flow, recording
// it on first sight.
func (d *cycleDetector) check(flow, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	flowSeen, ok := d.seen[flow]
	if !ok {
		flowSeen = map[string]bool{}
		d.seen[flow] = flowSeen
	}
	if flowSeen[key] {
		return true
	}
	flowSeen[key] = true
	return false
}

// clear drops a flow's history once the flow is finished.
func (d *cycleDetector) clear(flow string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, flow)
}
