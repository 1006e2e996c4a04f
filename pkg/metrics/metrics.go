// Package metrics counts every outcome the sampling pipeline can
// produce, success and failure alike, so an operator can see how
// often each unwind or Python-walk failure mode actually fires in
// production instead of only seeing aggregate sample counts.
package metrics

import "sync/atomic"

// ID names one countable event.
type ID uint32

const (
	SentStackCount ID = iota

	ErrSampleCantAlloc
	ErrSampleNoPidInfo
	ErrSampleBinarySearch

	ErrUnwindInvalidRule
	ErrUnwindCouldNotReadStack
	ErrUnwindFramepointerUnwindingMovedBackwards
	ErrUnwindDidNotAdvance
	ErrUnwindIntegerOverflow
	ErrUnwindReturnAddressIsNull

	TraceMgmtNewPid
	TraceMgmtNewPidAlreadyNotified
	TraceMgmtPidErr

	ErrPyNoStack
	ErrPyNone
	ErrPyMissingPyState
	ErrPyThreadStateNull
	ErrPyInterpreterNull
	ErrPyTooManyThreads
	ErrPyThreadStateNotFound
	ErrPyEmptyStack
	ErrPyFrameCodeIsNull
	ErrPyBadFSBase
	ErrPyInvalidPthreadsImpl
	ErrPyThreadStateHeadNull
	ErrPyBadThreadState
	ErrPyCallFailed
	ErrPyCantAlloc
	ErrPyNoPid
	ErrPyReadFrame
	ErrPyGetFirstArg
	ErrPyFirstArgNotFound

	numIDs
)

var names = [numIDs]string{
	SentStackCount:                                "SentStackCount",
	ErrSampleCantAlloc:                             "ErrSampleCantAlloc",
	ErrSampleNoPidInfo:                             "ErrSampleNoPidInfo",
	ErrSampleBinarySearch:                          "ErrSampleBinarySearch",
	ErrUnwindInvalidRule:                           "ErrUnwindInvalidRule",
	ErrUnwindCouldNotReadStack:                     "ErrUnwindCouldNotReadStack",
	ErrUnwindFramepointerUnwindingMovedBackwards:   "ErrUnwindFramepointerUnwindingMovedBackwards",
	ErrUnwindDidNotAdvance:                         "ErrUnwindDidNotAdvance",
	ErrUnwindIntegerOverflow:                       "ErrUnwindIntegerOverflow",
	ErrUnwindReturnAddressIsNull:                   "ErrUnwindReturnAddressIsNull",
	TraceMgmtNewPid:                                "TraceMgmtNewPid",
	TraceMgmtNewPidAlreadyNotified:                 "TraceMgmtNewPidAlreadyNotified",
	TraceMgmtPidErr:                                "TraceMgmtPidErr",
	ErrPyNoStack:                                   "ErrPyNoStack",
	ErrPyNone:                                      "ErrPyNone",
	ErrPyMissingPyState:                            "ErrPyMissingPyState",
	ErrPyThreadStateNull:                           "ErrPyThreadStateNull",
	ErrPyInterpreterNull:                           "ErrPyInterpreterNull",
	ErrPyTooManyThreads:                            "ErrPyTooManyThreads",
	ErrPyThreadStateNotFound:                       "ErrPyThreadStateNotFound",
	ErrPyEmptyStack:                                "ErrPyEmptyStack",
	ErrPyFrameCodeIsNull:                           "ErrPyFrameCodeIsNull",
	ErrPyBadFSBase:                                 "ErrPyBadFSBase",
	ErrPyInvalidPthreadsImpl:                       "ErrPyInvalidPthreadsImpl",
	ErrPyThreadStateHeadNull:                       "ErrPyThreadStateHeadNull",
	ErrPyBadThreadState:                            "ErrPyBadThreadState",
	ErrPyCallFailed:                                "ErrPyCallFailed",
	ErrPyCantAlloc:                                 "ErrPyCantAlloc",
	ErrPyNoPid:                                     "ErrPyNoPid",
	ErrPyReadFrame:                                 "ErrPyReadFrame",
	ErrPyGetFirstArg:                               "ErrPyGetFirstArg",
	ErrPyFirstArgNotFound:                          "ErrPyFirstArgNotFound",
}

func (id ID) String() string {
	if id >= numIDs {
		return "Unknown"
	}
	return names[id]
}

// Counters is a fixed set of atomic counters, one per ID, safe for
// concurrent use by every per-CPU ring consumer goroutine.
type Counters struct {
	values [numIDs]atomic.Uint64
}

// New returns a zeroed set of counters.
func New() *Counters {
	return &Counters{}
}

// Inc increments the counter for id by one and returns its new value.
func (c *Counters) Inc(id ID) uint64 {
	return c.values[id].Add(1)
}

// Add increments the counter for id by delta.
func (c *Counters) Add(id ID, delta uint64) uint64 {
	return c.values[id].Add(delta)
}

// Get returns the current value of the counter for id.
func (c *Counters) Get(id ID) uint64 {
	return c.values[id].Load()
}

// Snapshot returns every non-zero counter, keyed by name.
func (c *Counters) Snapshot() map[string]uint64 {
	out := map[string]uint64{}
	for i := ID(0); i < numIDs; i++ {
		if v := c.values[i].Load(); v != 0 {
			out[i.String()] = v
		}
	}
	return out
}
