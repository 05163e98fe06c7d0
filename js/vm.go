package js

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/grafana/sobek"
	"github.com/shiroyk/embedjs/modules"
)

// DefaultScriptName the name of scripts evaluated without a file.
const DefaultScriptName = "<input>"

// ErrNotFunction the value is not a callable function
var ErrNotFunction = errors.New("is not a function")

// VM the js runtime.
// An instance of VM can only be used by a single goroutine at a time.
type VM interface {
	// Run the task on the event loop, it blocks until the task and all
	// enqueued jobs finished or the context is done.
	Run(context.Context, func() error) error
	// RunString executes the given string as a script named DefaultScriptName.
	RunString(context.Context, string) (sobek.Value, error)
	// RunScript executes the source as a script with the given name.
	RunScript(ctx context.Context, name, source string) (sobek.Value, error)
	// RunModule evaluates the module, if the default export is a function
	// it is called with args and its result returned.
	RunModule(context.Context, sobek.CyclicModuleRecord, ...any) (sobek.Value, error)
	// Call the global function by name with the args converted by Runtime.ToValue.
	Call(ctx context.Context, name string, args ...any) (sobek.Value, error)
	// Runtime the sobek runtime
	Runtime() *sobek.Runtime
}

// Options the VM options
type Options struct {
	// Strict compile scripts in strict mode
	Strict bool `yaml:"strict"`
	// Base the base directory of relative modules
	Base string `yaml:"base"`
	// Timeout of each run, zero means no timeout
	Timeout time.Duration `yaml:"timeout"`
}

// Option the NewVM option
type Option func(*vmImpl)

// WithInitial calls the function when the VM is created.
func WithInitial(fn func(*sobek.Runtime)) Option {
	return func(vm *vmImpl) { vm.initial = append(vm.initial, fn) }
}

// WithStrict compile scripts in strict mode.
func WithStrict(strict bool) Option {
	return func(vm *vmImpl) { vm.strict = strict }
}

// WithStdout the writer of console.log and console.info.
func WithStdout(w io.Writer) Option {
	return func(vm *vmImpl) { vm.stdout = w }
}

// WithStderr the writer of console.error and console.warn.
func WithStderr(w io.Writer) Option {
	return func(vm *vmImpl) { vm.stderr = w }
}

// WithLoader uses the modules.Loader instead of the default Loader.
func WithLoader(loader modules.Loader) Option {
	return func(vm *vmImpl) { vm.loader = loader }
}

type vmImpl struct {
	runtime   *sobek.Runtime
	eventloop *EventLoop
	loader    modules.Loader
	ctx       context.Context
	strict    bool
	stdout    io.Writer
	stderr    io.Writer
	initial   []func(*sobek.Runtime)
}

// NewVM creates a new JavaScript VM
// Initialize the require, dynamic import, global modules and console.
func NewVM(opts ...Option) VM {
	rt := sobek.New()
	rt.SetFieldNameMapper(sobek.TagFieldNameMapper("js", true))

	vm := &vmImpl{
		runtime:   rt,
		eventloop: NewEventLoop(),
		ctx:       context.Background(),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.loader == nil {
		vm.loader = Loader()
	}

	_ = rt.GlobalObject().DefineDataPropertySymbol(symVM, rt.ToValue(vm),
		sobek.FLAG_FALSE, sobek.FLAG_FALSE, sobek.FLAG_FALSE)
	vm.loader.EnableRequire(rt).EnableImportModuleDynamically(rt)

	for name, mod := range modules.All() {
		if _, ok := mod.(modules.Global); !ok {
			continue
		}
		value, err := mod.Instantiate(rt)
		if err != nil {
			panic(fmt.Errorf("instantiate global module %s: %w", name, err))
		}
		if value != nil {
			_ = rt.Set(name, value)
		}
	}

	EnableConsole(rt)

	for _, fn := range vm.initial {
		fn(rt)
	}

	return vm
}

// Run the task on the event loop.
func (vm *vmImpl) Run(ctx context.Context, task func() error) (err error) {
	// resets the interrupt flag.
	vm.runtime.ClearInterrupt()
	vm.ctx = ctx

	done, exited := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			// Interrupt running JavaScript.
			vm.runtime.Interrupt(ctx.Err())
			vm.eventloop.Stop()
		case <-done:
		}
	}()

	defer func() {
		close(done)
		// the watcher must not interrupt the next run
		<-exited
		vm.ctx = context.Background()
		if r := recover(); r != nil {
			stack := vm.runtime.CaptureCallStack(20, nil)
			buf := new(bytes.Buffer)
			for _, frame := range stack {
				frame.Write(buf)
				buf.WriteByte('\n')
			}
			Logger(ctx).Error(fmt.Sprintf("vm run error %v", r),
				slog.String("stack", string(debug.Stack())), slog.String("js stack", buf.String()))
			err = fmt.Errorf("vm run error: %v", r)
		}
	}()

	err = vm.eventloop.Start(task)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return
}

// RunString executes the given string.
func (vm *vmImpl) RunString(ctx context.Context, source string) (sobek.Value, error) {
	return vm.RunScript(ctx, DefaultScriptName, source)
}

// RunScript executes the source as a script with the given name.
func (vm *vmImpl) RunScript(ctx context.Context, name, source string) (ret sobek.Value, err error) {
	program, err := sobek.Compile(name, source, vm.strict)
	if err != nil {
		return nil, err
	}
	err = vm.Run(ctx, func() (err error) {
		ret, err = vm.runtime.RunProgram(program)
		return
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// RunModule evaluates the module, the evaluation and the default export call
// are separate runs, the jobs queued by the evaluation finish before the call.
// A promise returned by the default export is settled.
func (vm *vmImpl) RunModule(ctx context.Context, module sobek.CyclicModuleRecord, args ...any) (ret sobek.Value, err error) {
	var promise *sobek.Promise
	err = vm.Run(ctx, func() error {
		if vm.runtime.GetModuleInstance(module) != nil {
			return nil
		}
		if err := module.Link(); err != nil {
			return err
		}
		promise = vm.runtime.CyclicModuleRecordEvaluate(module, vm.loader.ResolveModule)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if promise != nil {
		if promise.State() == sobek.PromiseStateRejected {
			return nil, rejection(promise.Result())
		}
	}

	err = vm.Run(ctx, func() (err error) {
		instance := vm.runtime.GetModuleInstance(module)
		if instance == nil {
			return modules.ErrInvalidModule
		}
		value := instance.GetBindingValue("default")
		if value == nil {
			ret = sobek.Undefined()
			return nil
		}
		call, ok := sobek.AssertFunction(value)
		if !ok {
			ret = value
			return nil
		}
		ret, err = call(sobek.Undefined(), vm.toValues(args)...)
		return
	})
	if err != nil {
		return nil, err
	}
	return settle(ret)
}

// Call the global function by name, this is the global object.
// A returned promise is settled.
func (vm *vmImpl) Call(ctx context.Context, name string, args ...any) (ret sobek.Value, err error) {
	err = vm.Run(ctx, func() (err error) {
		call, ok := sobek.AssertFunction(vm.runtime.Get(name))
		if !ok {
			return fmt.Errorf("%s %w", name, ErrNotFunction)
		}
		ret, err = call(vm.runtime.GlobalObject(), vm.toValues(args)...)
		return
	})
	if err != nil {
		return nil, err
	}
	return settle(ret)
}

// Runtime the sobek runtime
func (vm *vmImpl) Runtime() *sobek.Runtime { return vm.runtime }

func (vm *vmImpl) toValues(args []any) []sobek.Value {
	values := make([]sobek.Value, len(args))
	for i, arg := range args {
		values[i] = vm.runtime.ToValue(arg)
	}
	return values
}

var symVM = sobek.NewSymbol("Symbol.__vm__")

func self(rt *sobek.Runtime) *vmImpl {
	if v := rt.GlobalObject().GetSymbol(symVM); v != nil {
		if vm, ok := v.Export().(*vmImpl); ok {
			return vm
		}
	}
	panic(rt.NewTypeError("runtime is not created by NewVM"))
}

// settle returns the result of a settled promise, other values as is.
func settle(value sobek.Value) (sobek.Value, error) {
	if value == nil {
		return sobek.Undefined(), nil
	}
	promise, ok := value.Export().(*sobek.Promise)
	if !ok {
		return value, nil
	}
	switch promise.State() {
	case sobek.PromiseStateRejected:
		return nil, rejection(promise.Result())
	case sobek.PromiseStateFulfilled:
		return promise.Result(), nil
	default:
		return nil, errors.New("unexpected promise pending state")
	}
}

// rejection converts the reason of a rejected promise to error.
func rejection(reason sobek.Value) error {
	if reason == nil {
		return errors.New("promise rejected")
	}
	if err, ok := reason.Export().(error); ok {
		return err
	}
	return errors.New(reason.String())
}
