// Package modules the native module registry and the module loader
// shared by the VMs.
package modules

import (
	"maps"
	"sync"

	"github.com/grafana/sobek"
)

// Module a native module importable from JavaScript.
// Instantiate runs once per runtime, the returned value is the default
// export and its own properties are the named exports.
//
//	type Process struct{}
//
//	func (Process) Instantiate(rt *sobek.Runtime) (sobek.Value, error) {
//		return rt.ToValue(map[string]any{"pid": os.Getpid()}), nil
//	}
//
//	modules.Register("process", new(Process)) // import { pid } from "process"
type Module interface {
	Instantiate(*sobek.Runtime) (sobek.Value, error)
}

// Global a Module installed into the global scope of every new VM,
// a non nil value is set as the global property of its name.
type Global interface {
	Module
	Global()
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Module)
)

// Register the module under the name, replacing a module of the same name.
// VMs created afterward can import it, a Global is installed into them.
func Register(name string, mod Module) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = mod
}

// Get the module registered by the name.
func Get(name string) (Module, bool) {
	mu.RLock()
	defer mu.RUnlock()
	mod, ok := registry[name]
	return mod, ok
}

// Remove the modules by the names.
func Remove(names ...string) {
	mu.Lock()
	defer mu.Unlock()
	for _, name := range names {
		delete(registry, name)
	}
}

// All a copy of the registered modules by name.
func All() map[string]Module {
	mu.RLock()
	defer mu.RUnlock()
	return maps.Clone(registry)
}
