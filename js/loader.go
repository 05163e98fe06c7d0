package js

import (
	"fmt"
	"sync/atomic"

	"github.com/grafana/sobek"
	"github.com/shiroyk/embedjs/modules"
)

type wrap struct{ modules.Loader }

var loader atomic.Value

func init() {
	SetLoader(modules.NewLoader())
}

// Loader get the default Loader
func Loader() modules.Loader { return loader.Load().(wrap).Loader }

// SetLoader set the default Loader, it is used by the VM created afterward.
func SetLoader(ml modules.Loader) { loader.Store(wrap{ml}) }

// CompileModule compile module from source string (cjs/esm) with the default Loader.
func CompileModule(name, source string) (sobek.CyclicModuleRecord, error) {
	return Loader().CompileModule(name, source)
}

// ImportModule resolves the specifier as the entry module, the relative
// imports of the module are resolved against its own directory.
func ImportModule(specifier string) (sobek.CyclicModuleRecord, error) {
	mod, err := Loader().ResolveModule(nil, specifier)
	if err != nil {
		return nil, err
	}
	cm, ok := mod.(sobek.CyclicModuleRecord)
	if !ok {
		return nil, fmt.Errorf("%w: %s", modules.ErrInvalidModule, specifier)
	}
	return cm, nil
}
