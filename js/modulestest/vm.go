// Package modulestest the VM for testing native modules
package modulestest

import (
	"context"
	"errors"
	"testing"

	"github.com/grafana/sobek"
	"github.com/shiroyk/embedjs/js"
	"github.com/stretchr/testify/assert"
)

// VM the test VM, RunModule compiles the source before running.
type VM struct {
	js.VM
}

// RunModule compiles the source as a module and runs it.
func (vm *VM) RunModule(ctx context.Context, source string, args ...any) (sobek.Value, error) {
	module, err := js.CompileModule("", source)
	if err != nil {
		return nil, err
	}
	return vm.VM.RunModule(ctx, module, args...)
}

// New returns a test VM with the global `assert`:
//
//	assert.equal(actual, expected, message?)
//	assert.true(value, message?)
//
// A failed assertion fails the test and throws.
func New(t testing.TB, opts ...js.Option) *VM {
	vm := js.NewVM(opts...)
	rt := vm.Runtime()

	obj := rt.NewObject()
	_ = obj.Set("equal", func(call sobek.FunctionCall, rt *sobek.Runtime) sobek.Value {
		actual, expected := export(rt, call.Argument(0)), export(rt, call.Argument(1))
		if !assert.Equal(t, expected, actual, message(call.Argument(2))) {
			js.Throw(rt, errors.New("not equal"))
		}
		return sobek.Undefined()
	})
	_ = obj.Set("true", func(call sobek.FunctionCall, rt *sobek.Runtime) sobek.Value {
		if !assert.True(t, call.Argument(0).ToBoolean(), message(call.Argument(1))) {
			js.Throw(rt, errors.New("should be true"))
		}
		return sobek.Undefined()
	})
	_ = rt.Set("assert", obj)

	return &VM{vm}
}

func export(rt *sobek.Runtime, value sobek.Value) any {
	v, err := js.Unwrap(value)
	if err != nil {
		js.Throw(rt, err)
	}
	return v
}

func message(value sobek.Value) string {
	if sobek.IsUndefined(value) {
		return ""
	}
	return value.String()
}
