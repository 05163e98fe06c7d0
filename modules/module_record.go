package modules

import (
	"sync"

	"github.com/grafana/sobek"
)

// leafRecord the parts of a module record without dependencies
// or an evaluation of its own.
type leafRecord struct{}

func (leafRecord) Link() error { return nil }

func (leafRecord) RequestedModules() []string { return nil }

func (leafRecord) InitializeEnvironment() error { return nil }

func (leafRecord) Evaluate(*sobek.Runtime) *sobek.Promise { return nil }

// commonJS a CommonJS source compiled as `(function(exports, require, module) {...})`.
type commonJS struct {
	leafRecord
	prg *sobek.Program

	names   []string // known after the first execution
	pending []func([]string)
}

func (c *commonJS) Instantiate(*sobek.Runtime) (sobek.CyclicModuleInstance, error) {
	return &commonJSInstance{record: c}, nil
}

func (c *commonJS) GetExportedNames(callback func([]string), _ ...sobek.ModuleRecord) bool {
	if c.names == nil {
		c.pending = append(c.pending, callback)
		return false
	}
	callback(c.names)
	return true
}

func (c *commonJS) ResolveExport(name string, _ ...sobek.ResolveSetElement) (*sobek.ResolvedBinding, bool) {
	return &sobek.ResolvedBinding{Module: c, BindingName: name}, false
}

func (c *commonJS) setNames(names []string) {
	if c.names != nil {
		return
	}
	c.names = append([]string{}, names...)
	for _, callback := range c.pending {
		callback(c.names)
	}
	c.pending = nil
}

type commonJSInstance struct {
	record  *commonJS
	exports *sobek.Object
}

func (*commonJSInstance) HasTLA() bool { return false }

// GetBindingValue the default binding is exports.default if present,
// otherwise module.exports itself.
func (i *commonJSInstance) GetBindingValue(name string) sobek.Value {
	if i.exports == nil {
		return nil
	}
	v := i.exports.Get(name)
	if v == nil && name == "default" {
		return i.exports
	}
	return v
}

func (i *commonJSInstance) ExecuteModule(rt *sobek.Runtime, _, _ func(any) error) (sobek.CyclicModuleInstance, error) {
	wrapper, err := rt.RunProgram(i.record.prg)
	if err != nil {
		return nil, err
	}
	fn, ok := sobek.AssertFunction(wrapper)
	if !ok {
		return nil, ErrInvalidModule
	}

	exports := rt.NewObject()
	module := rt.NewObject()
	_ = module.Set("exports", exports)
	if _, err = fn(exports, exports, rt.Get("require"), module); err != nil {
		return nil, err
	}

	value := module.Get("exports")
	if value == nil || sobek.IsUndefined(value) || sobek.IsNull(value) {
		return nil, ErrInvalidModule
	}
	i.exports = value.ToObject(rt)
	i.record.setNames(i.exports.GetOwnPropertyNames())
	return i, nil
}

// native a Module as a module record, it is instantiated once per runtime.
type native struct {
	leafRecord
	mod Module

	once  sync.Once
	names []string
}

func (n *native) Instantiate(rt *sobek.Runtime) (sobek.CyclicModuleInstance, error) {
	value, err := n.mod.Instantiate(rt)
	if err != nil {
		return nil, err
	}
	if value == nil || sobek.IsUndefined(value) || sobek.IsNull(value) {
		return nil, ErrInvalidModule
	}
	obj := value.ToObject(rt)
	n.once.Do(func() { n.names = obj.GetOwnPropertyNames() })
	return nativeInstance{obj}, nil
}

func (n *native) GetExportedNames(callback func([]string), _ ...sobek.ModuleRecord) bool {
	callback(n.names)
	return true
}

func (n *native) ResolveExport(name string, _ ...sobek.ResolveSetElement) (*sobek.ResolvedBinding, bool) {
	return &sobek.ResolvedBinding{Module: n, BindingName: name}, false
}

// nativeInstance the value is the default export, its properties the named exports.
type nativeInstance struct{ value *sobek.Object }

func (i nativeInstance) GetBindingValue(name string) sobek.Value {
	if name == "default" {
		return i.value
	}
	return i.value.Get(name)
}

func (nativeInstance) HasTLA() bool { return false }

func (i nativeInstance) ExecuteModule(*sobek.Runtime, func(any) error, func(any) error) (sobek.CyclicModuleInstance, error) {
	return i, nil
}
