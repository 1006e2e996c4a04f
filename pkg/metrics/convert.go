package metrics

import (
	"github.com/0b01/tail2-go/pkg/pywalk"
	"github.com/0b01/tail2-go/pkg/unwind"
)

// FromWalkError maps a native-stack unwind failure to its metric ID.
func FromWalkError(kind unwind.WalkErrorKind) ID {
	switch kind {
	case unwind.InvalidRule:
		return ErrUnwindInvalidRule
	case unwind.CouldNotReadStack:
		return ErrUnwindCouldNotReadStack
	case unwind.FramepointerUnwindingMovedBackwards:
		return ErrUnwindFramepointerUnwindingMovedBackwards
	case unwind.DidNotAdvance:
		return ErrUnwindDidNotAdvance
	case unwind.IntegerOverflow:
		return ErrUnwindIntegerOverflow
	case unwind.ReturnAddressIsNull:
		return ErrUnwindReturnAddressIsNull
	default:
		return ErrUnwindInvalidRule
	}
}

// FromPywalkCause maps a Python stack-walk outcome to its metric ID.
// CauseNone is a valid, successful outcome and has its own metric so
// dashboards can distinguish "walked fine" from "didn't try."
func FromPywalkCause(cause pywalk.Cause) ID {
	switch cause {
	case pywalk.CauseNone:
		return ErrPyNone
	case pywalk.CauseMissingPyState:
		return ErrPyMissingPyState
	case pywalk.CauseThreadStateNull:
		return ErrPyThreadStateNull
	case pywalk.CauseInterpreterNull:
		return ErrPyInterpreterNull
	case pywalk.CauseTooManyThreads:
		return ErrPyTooManyThreads
	case pywalk.CauseThreadStateNotFound:
		return ErrPyThreadStateNotFound
	case pywalk.CauseEmptyStack:
		return ErrPyEmptyStack
	case pywalk.CauseFrameCodeIsNull:
		return ErrPyFrameCodeIsNull
	case pywalk.CauseBadFSBase:
		return ErrPyBadFSBase
	case pywalk.CauseInvalidPthreadsImpl:
		return ErrPyInvalidPthreadsImpl
	case pywalk.CauseThreadStateHeadNull:
		return ErrPyThreadStateHeadNull
	case pywalk.CauseBadThreadState:
		return ErrPyBadThreadState
	case pywalk.CauseCallFailed:
		return ErrPyCallFailed
	default:
		return ErrPyNone
	}
}
