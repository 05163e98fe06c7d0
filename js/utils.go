package js

import (
	"context"
	"errors"
	"math"

	"github.com/grafana/sobek"
)

// Throw js exception
func Throw(rt *sobek.Runtime, err error) {
	var ex *sobek.Exception
	if errors.As(err, &ex) { //nolint:errorlint
		panic(ex)
	}
	panic(rt.NewGoError(err))
}

// Unwrap the sobek.Value to the raw value,
// a settled promise is unwrapped to its result.
func Unwrap(value sobek.Value) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.Export().(type) {
	default:
		return v, nil
	case sobek.ArrayBuffer:
		return v.Bytes(), nil
	case *sobek.Promise:
		switch v.State() {
		case sobek.PromiseStateRejected:
			return nil, rejection(v.Result())
		case sobek.PromiseStateFulfilled:
			return v.Result().Export(), nil
		default:
			return nil, errors.New("unexpected promise pending state")
		}
	}
}

// Context returns the current context of the sobek.Runtime
func Context(rt *sobek.Runtime) context.Context { return self(rt).ctx }

// EnqueueJob registers a job on the event loop of the sobek.Runtime,
// see EventLoop.EnqueueJob.
func EnqueueJob(rt *sobek.Runtime) Enqueue { return self(rt).eventloop.EnqueueJob() }

// Loop returns the event loop of the sobek.Runtime, it can be used
// from other goroutines.
func Loop(rt *sobek.Runtime) *EventLoop { return self(rt).eventloop }

// Cleanup add a function to execute when the VM has finished running.
// eg: close resources...
func Cleanup(rt *sobek.Runtime, job func()) { self(rt).eventloop.Cleanup(job) }

// ToInt32 converts the value with the ECMAScript ToInt32 operation.
func ToInt32(value sobek.Value) int32 {
	if value == nil {
		return 0
	}
	return int32(ToUint32(value))
}

// ToUint32 converts the value with the ECMAScript ToUint32 operation.
func ToUint32(value sobek.Value) uint32 {
	if value == nil {
		return 0
	}
	if i, ok := value.Export().(int64); ok {
		return uint32(i)
	}
	return float64ToUint32(value.ToFloat())
}

func float64ToUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return uint32(f)
}
