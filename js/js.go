package js

import (
	"context"

	"github.com/grafana/sobek"
)

// RunString evaluates the source in a new VM.
//
//	v, _ := js.RunString(ctx, `[1, 2].map((x) => x * 2).join()`)
//	fmt.Println(v) // 2,4
func RunString(ctx context.Context, source string) (sobek.Value, error) {
	return NewVM().RunString(ctx, source)
}

// RunModule evaluates the module in a new VM, a default exported function
// is called with args.
//
//	mod, _ := js.CompileModule("sub.js", `export default (a, b) => a - b`)
//	v, _ := js.RunModule(ctx, mod, 5, 3)
//	fmt.Println(v) // 2
func RunModule(ctx context.Context, module sobek.CyclicModuleRecord, args ...any) (sobek.Value, error) {
	return NewVM().RunModule(ctx, module, args...)
}

// Call evaluates the source as a strict script in a new VM,
// then calls the global function by name.
//
//	v, _ := js.Call(ctx, `function foo(x, y) { return x + y; }`, "foo", 5, 3)
//	fmt.Println(js.ToInt32(v)) // 8
func Call(ctx context.Context, source, name string, args ...any) (sobek.Value, error) {
	vm := NewVM(WithStrict(true))
	if _, err := vm.RunString(ctx, source); err != nil {
		return nil, err
	}
	return vm.Call(ctx, name, args...)
}
