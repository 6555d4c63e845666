package monitor

import (
	"fmt"
	"time"
)

// Decide computes the status of a monitor as of now from its last accepted
// heartbeat. A monitor that never pinged has nothing to judge, its status
// stays as-is (UNKNOWN until the first heartbeat). The boundary is
// inclusive: elapsed == interval+grace is still UP. The second return
// value reports whether the status actually changed, no-op evaluations
// must produce no writes.
func Decide(current Status, lastPing *time.Time, intervalSec, graceSec int32, now time.Time) (Status, bool) {
	if lastPing == nil {
		return current, false
	}

	elapsed := now.Sub(*lastPing)
	threshold := Threshold(intervalSec, graceSec)

	next := StatusUp
	if elapsed > threshold {
		next = StatusDown
	}

	return next, next != current
}

func Threshold(intervalSec, graceSec int32) time.Duration {
	return time.Duration(intervalSec+graceSec) * time.Second
}

// TimeoutNote encodes the evaluation arithmetic into the history entry so
// a transition can be traced back to the numbers that caused it.
func TimeoutNote(elapsed, threshold time.Duration) string {
	return fmt.Sprintf("delta=%ds threshold=%ds", int64(elapsed.Seconds()), int64(threshold.Seconds()))
}
